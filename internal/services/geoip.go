package services

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/makingtheimpact/blnk-icu/internal/config"

	"github.com/oschwald/geoip2-golang"
)

// Location is the coarse position of a client address.
type Location struct {
	Country string
	Region  string
	City    string
}

var unknownLocation = Location{Country: "Unknown"}

// cityReader is the subset of *geoip2.Reader used for lookups.
type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Close() error
}

type GeoIPService struct {
	cfg    config.Config
	logger *slog.Logger
	reader cityReader
	mu     sync.RWMutex
}

func NewGeoIPService(cfg config.Config, logger *slog.Logger) *GeoIPService {
	return &GeoIPService{
		cfg:    cfg,
		logger: logger,
	}
}

// Init opens the database at GEOIP_DB_PATH, downloading it first when
// MaxMind credentials are configured and the file is missing. Lookups
// report Unknown until a database is loaded.
func (s *GeoIPService) Init() {
	path := s.cfg.MaxMindDBPath
	if path == "" {
		s.logger.Warn("GeoIP: no database path configured, lookups disabled")
		return
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !s.canDownload() {
			s.logger.Warn("GeoIP: database missing and MaxMind credentials not set, lookups disabled", "path", path)
			return
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			s.logger.Error("GeoIP: failed to create directory", "path", path, "error", err)
			return
		}
		s.logger.Info("GeoIP: database missing, downloading")
		if err := s.updateGeoDB(); err != nil {
			s.logger.Error("GeoIP: initial download failed", "error", err)
			return
		}
	}

	s.reload(path)
}

func (s *GeoIPService) canDownload() bool {
	return s.cfg.MaxMindAccountID != "" && s.cfg.MaxMindLicenseKey != ""
}

// StartUpdater refreshes the database every interval until ctx is done.
func (s *GeoIPService) StartUpdater(ctx context.Context, interval time.Duration) {
	if !s.canDownload() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.logger.Info("GeoIP: running scheduled update")
			if err := s.updateGeoDB(); err != nil {
				s.logger.Error("GeoIP: update failed", "error", err)
				continue
			}
			s.reload(s.cfg.MaxMindDBPath)
		case <-ctx.Done():
			s.logger.Info("GeoIP: updater stopping")
			return
		}
	}
}

func (s *GeoIPService) updateGeoDB() error {
	dir := filepath.Dir(s.cfg.MaxMindDBPath)
	confPath := filepath.Join(dir, "GeoIP.conf")

	content := fmt.Sprintf("AccountID %s\nLicenseKey %s\nEditionIDs %s\nDatabaseDirectory %s\n",
		s.cfg.MaxMindAccountID, s.cfg.MaxMindLicenseKey, s.cfg.MaxMindEditionIDs, dir)
	if err := os.WriteFile(confPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write GeoIP.conf: %w", err)
	}
	defer os.Remove(confPath)

	output, err := exec.Command("geoipupdate", "-f", confPath, "-d", dir).CombinedOutput()
	if err != nil {
		return fmt.Errorf("geoipupdate failed: %w, output: %s", err, string(output))
	}
	return nil
}

func (s *GeoIPService) reload(path string) {
	reader, err := geoip2.Open(path)
	if err != nil {
		s.logger.Error("GeoIP: failed to open database", "path", path, "error", err)
		return
	}
	s.logger.Info("GeoIP: loaded database", "path", path, "epoch", reader.Metadata().BuildEpoch)
	s.setReader(reader)
}

func (s *GeoIPService) setReader(r cityReader) {
	s.mu.Lock()
	old := s.reader
	s.reader = r
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

// Close releases the database, if one is loaded.
func (s *GeoIPService) Close() {
	s.setReader(nil)
}

// Lookup never fails: unusable addresses and lookup errors yield Unknown.
func (s *GeoIPService) Lookup(raw string) Location {
	ip := net.ParseIP(raw)
	if ip == nil {
		return unknownLocation
	}
	if ip.IsLoopback() || ip.IsPrivate() {
		return Location{Country: "Local"}
	}
	if s == nil {
		return unknownLocation
	}

	s.mu.RLock()
	reader := s.reader
	s.mu.RUnlock()
	if reader == nil {
		return unknownLocation
	}

	record, err := reader.City(ip)
	if err != nil {
		s.logger.Warn("GeoIP: lookup failed", "error", err)
		return unknownLocation
	}

	loc := Location{Country: record.Country.Names["en"], City: record.City.Names["en"]}
	if loc.Country == "" {
		loc.Country = record.Country.IsoCode
	}
	if loc.Country == "" {
		loc.Country = unknownLocation.Country
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names["en"]
	}
	return loc
}
