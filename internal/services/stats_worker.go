package services

import (
	"context"
	"log/slog"
	"net"

	"github.com/makingtheimpact/blnk-icu/internal/models"

	"github.com/mssola/user_agent"
	"gorm.io/gorm"
)

const statsBuffer = 1000

// Visit is the request metadata captured for a redirect or scan.
type Visit struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

// analyticsEvent holds exactly one of a link visit or a QR scan.
type analyticsEvent struct {
	link *models.URLAnalytics
	scan *models.QRAnalytics
}

// StatsService enriches and stores analytics rows off the request path.
type StatsService struct {
	db     *gorm.DB
	logger *slog.Logger
	events chan analyticsEvent
	geoIP  *GeoIPService
}

func NewStatsService(db *gorm.DB, logger *slog.Logger, geoIP *GeoIPService) *StatsService {
	return &StatsService{
		db:     db,
		logger: logger,
		events: make(chan analyticsEvent, statsBuffer),
		geoIP:  geoIP,
	}
}

func (s *StatsService) Start(ctx context.Context) {
	s.logger.Info("Stats worker starting")
	for {
		select {
		case ev := <-s.events:
			s.store(ev)
		case <-ctx.Done():
			s.drain()
			s.logger.Info("Stats worker stopping")
			return
		}
	}
}

// drain stores events queued before shutdown.
func (s *StatsService) drain() {
	for {
		select {
		case ev := <-s.events:
			s.store(ev)
		default:
			return
		}
	}
}

func (s *StatsService) store(ev analyticsEvent) {
	var err error
	switch {
	case ev.link != nil:
		s.enrichVisit(ev.link)
		err = s.db.Create(ev.link).Error
	case ev.scan != nil:
		s.enrichScan(ev.scan)
		err = s.db.Create(ev.scan).Error
	}
	if err != nil {
		s.logger.Error("Failed to record analytics", "error", err)
	}
}

// RecordVisitAsync queues a link visit. Events are dropped when the queue is full.
func (s *StatsService) RecordVisitAsync(row models.URLAnalytics) {
	s.enqueue(analyticsEvent{link: &row})
}

// RecordScanAsync queues a QR scan. Events are dropped when the queue is full.
func (s *StatsService) RecordScanAsync(row models.QRAnalytics) {
	s.enqueue(analyticsEvent{scan: &row})
}

func (s *StatsService) enqueue(ev analyticsEvent) {
	if s == nil {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("Stats channel full, dropping analytics event")
	}
}

type clientInfo struct {
	browser, os, device string
}

func parseUserAgent(raw string) clientInfo {
	ua := user_agent.New(raw)
	name, version := ua.Browser()

	info := clientInfo{browser: name, os: ua.OS(), device: "Desktop"}
	if version != "" {
		info.browser = name + " " + version
	}
	switch {
	case ua.Bot():
		info.device = "Bot"
	case ua.Mobile():
		info.device = "Mobile"
	}
	return info
}

func (s *StatsService) enrichVisit(row *models.URLAnalytics) {
	info := parseUserAgent(row.UserAgent)
	row.Browser = info.browser
	row.OS = info.os
	row.DeviceType = info.device

	loc := s.geoIP.Lookup(row.IPAddress)
	row.Country = loc.Country
	row.Region = loc.Region
	row.City = loc.City

	row.IPAddress = maskIP(row.IPAddress)
}

func (s *StatsService) enrichScan(row *models.QRAnalytics) {
	row.DeviceType = parseUserAgent(row.UserAgent).device
	row.Country = s.geoIP.Lookup(row.IPAddress).Country
	row.IPAddress = maskIP(row.IPAddress)
}

// maskIP zeroes the host part: the last octet of IPv4, the last 80 bits of IPv6.
func maskIP(raw string) string {
	ip := net.ParseIP(raw)
	if ip == nil {
		return ""
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}
	return ip.Mask(net.CIDRMask(48, 128)).String()
}

// Count is one bucket of a grouped analytics query.
type Count struct {
	Value string `json:"value"`
	Total int64  `json:"total"`
}

// LinkStats summarises the stored visits of one link.
type LinkStats struct {
	ShortCode   string                `json:"short_code"`
	OriginalURL string                `json:"original_url"`
	TotalClicks int64                 `json:"total_clicks"`
	TotalScans  int64                 `json:"total_scans"`
	Countries   []Count               `json:"countries"`
	Browsers    []Count               `json:"browsers"`
	Devices     []Count               `json:"devices"`
	Recent      []models.URLAnalytics `json:"recent"`
}

const recentVisits = 20

// Summary aggregates visits and QR scans for link.
func (s *StatsService) Summary(ctx context.Context, link *models.URL) (*LinkStats, error) {
	db := s.db.WithContext(ctx)
	stats := &LinkStats{ShortCode: link.ShortCode, OriginalURL: link.OriginalURL}

	if err := db.Model(&models.URLAnalytics{}).Where("url_id = ?", link.ID).Count(&stats.TotalClicks).Error; err != nil {
		return nil, err
	}

	qrIDs := db.Model(&models.QRCode{}).Select("id").Where("url_id = ?", link.ID)
	if err := db.Model(&models.QRAnalytics{}).Where("qr_code_id IN (?)", qrIDs).Count(&stats.TotalScans).Error; err != nil {
		return nil, err
	}

	groups := []struct {
		column string
		into   *[]Count
	}{
		{"country", &stats.Countries},
		{"browser", &stats.Browsers},
		{"device_type", &stats.Devices},
	}
	for _, g := range groups {
		err := db.Model(&models.URLAnalytics{}).
			Select(g.column+" AS value, COUNT(*) AS total").
			Where("url_id = ?", link.ID).
			Group(g.column).
			Order("total DESC").
			Scan(g.into).Error
		if err != nil {
			return nil, err
		}
	}

	err := db.Where("url_id = ?", link.ID).
		Order("timestamp DESC").
		Limit(recentVisits).
		Find(&stats.Recent).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
