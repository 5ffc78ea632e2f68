package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"strings"
	"time"

	"github.com/makingtheimpact/blnk-icu/internal/models"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"gorm.io/gorm"
)

const (
	moduleSize = 10  // pixels per QR module
	quietZone  = 4   // modules of border on each side
	logoRatio  = 0.3 // logo side relative to the shorter image side
)

// QRCodeDTO describes a persisted QR code request.
type QRCodeDTO struct {
	ShortCode   string
	UserID      *uint
	IsSuperuser bool
	Style       StyleConfig
	Logo        []byte
	IPAddress   string
}

type QRService struct {
	db      *gorm.DB
	baseURL string
	stats   *StatsService
	audit   *AuditService
	logger  *slog.Logger
}

func NewQRService(db *gorm.DB, baseURL string, stats *StatsService, audit *AuditService, logger *slog.Logger) *QRService {
	return &QRService{
		db:      db,
		baseURL: strings.TrimRight(baseURL, "/"),
		stats:   stats,
		audit:   audit,
		logger:  logger,
	}
}

// ScanURL is the address encoded into a persisted QR code.
func (s *QRService) ScanURL(publicID string) string {
	return s.baseURL + "/q/" + publicID
}

// Render draws data as a styled PNG. A logo that cannot be used is skipped
// with a warning; only failures to encode data are returned.
func (s *QRService) Render(data string, cfg StyleConfig, logo []byte) ([]byte, error) {
	img, err := renderImage(data, ValidateStyleConfig(cfg))
	if err != nil {
		return nil, err
	}

	if len(logo) > 0 {
		if res := prepareLogo(logo, logoSide(img.Bounds())); res.err != nil {
			s.logger.Warn("Skipping QR logo", "error", res.err)
		} else {
			overlayLogo(img, res.img)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func renderImage(data string, cfg StyleConfig) (*image.NRGBA, error) {
	qr, err := qrcode.New(data, qrcode.Highest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentTooLong, err)
	}
	qr.DisableBorder = true
	bitmap := qr.Bitmap()
	n := len(bitmap)

	size := (n + 2*quietZone) * moduleSize
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	mask := maskFor(cfg)
	draw.Draw(img, img.Bounds(), image.NewUniform(mask.background()), image.Point{}, draw.Src)

	dark := func(row, col int) bool {
		return row >= 0 && col >= 0 && row < n && col < n && bitmap[row][col]
	}

	styled := drawerFor(cfg.Style)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			if !bitmap[row][col] {
				continue
			}

			// Finder patterns stay square so readers can locate the symbol.
			var drawer moduleDrawer = styled
			if isFinder(row, col, n) {
				drawer = squareDrawer{}
			}

			nb := neighbours{
				up:    dark(row-1, col),
				down:  dark(row+1, col),
				left:  dark(row, col-1),
				right: dark(row, col+1),
			}
			x0 := (col + quietZone) * moduleSize
			y0 := (row + quietZone) * moduleSize
			for py := 0; py < moduleSize; py++ {
				for px := 0; px < moduleSize; px++ {
					if drawer.covers(px, py, moduleSize, nb) {
						img.SetNRGBA(x0+px, y0+py, mask.foreground(x0+px, y0+py, size))
					}
				}
			}
		}
	}
	return img, nil
}

func isFinder(row, col, n int) bool {
	return (row < 7 && col < 7) || (row < 7 && col >= n-7) || (row >= n-7 && col < 7)
}

// logoResult carries either a prepared logo or the reason it was rejected.
type logoResult struct {
	img *image.NRGBA
	err error
}

func logoSide(b image.Rectangle) int {
	return int(float64(min(b.Dx(), b.Dy())) * logoRatio)
}

// prepareLogo scales the logo to side x side over an opaque white square.
func prepareLogo(data []byte, side int) logoResult {
	if side <= 0 {
		return logoResult{err: errors.New("image too small for a logo")}
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return logoResult{err: fmt.Errorf("failed to decode logo: %w", err)}
	}
	if src.Bounds().Empty() {
		return logoResult{err: errors.New("logo has no pixels")}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return logoResult{img: dst}
}

func overlayLogo(img *image.NRGBA, logo *image.NRGBA) {
	b := img.Bounds()
	side := logo.Bounds().Dx()
	offset := image.Pt(b.Min.X+(b.Dx()-side)/2, b.Min.Y+(b.Dy()-side)/2)
	target := image.Rectangle{Min: offset, Max: offset.Add(image.Pt(side, side))}.Intersect(b)
	draw.Draw(img, target, logo, image.Point{}, draw.Src)
}

// RenderSVG draws data with square modules in the solid front and back
// colours. Gradients and logos are not supported.
func (s *QRService) RenderSVG(data string, cfg StyleConfig) (string, error) {
	cfg = ValidateStyleConfig(cfg)
	qr, err := qrcode.New(data, qrcode.Highest)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrContentTooLong, err)
	}
	qr.DisableBorder = true
	bitmap := qr.Bitmap()
	size := len(bitmap) + 2*quietZone

	front := fieldColor(cfg.FrontColor, defaultFrontColor)
	back := fieldColor(cfg.BackColor, defaultBackColor)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, size, size))
	sb.WriteString(fmt.Sprintf(`<rect width="100%%" height="100%%" %s/>`, svgFill(back)))
	sb.WriteString(fmt.Sprintf(`<path %s d="`, svgFill(front)))
	for y, line := range bitmap {
		for x, on := range line {
			if on {
				sb.WriteString(fmt.Sprintf("M%d %dh1v1h-1z ", x+quietZone, y+quietZone))
			}
		}
	}
	sb.WriteString(`"/></svg>`)
	return sb.String(), nil
}

func svgFill(c color.NRGBA) string {
	attr := fmt.Sprintf(`fill="#%02X%02X%02X"`, c.R, c.G, c.B)
	if c.A != 255 {
		attr += fmt.Sprintf(` fill-opacity="%.3f"`, float64(c.A)/255)
	}
	return attr
}

// CreateQRCode stores a QR code for an active link and renders its scan URL.
// Links with an owner only accept QR codes from that owner.
func (s *QRService) CreateQRCode(ctx context.Context, dto QRCodeDTO) (*models.QRCode, []byte, error) {
	var link models.URL
	err := s.db.WithContext(ctx).Where("short_code = ? AND is_active = ?", dto.ShortCode, true).First(&link).Error
	if err != nil {
		return nil, nil, notFound(err)
	}
	if link.UserID != nil && !dto.IsSuperuser && (dto.UserID == nil || *dto.UserID != *link.UserID) {
		return nil, nil, ErrForbidden
	}

	qr := models.QRCode{
		PublicID:    uuid.NewString(),
		URLID:       link.ID,
		UserID:      dto.UserID,
		StyleConfig: ValidateStyleConfig(dto.Style),
		IsActive:    true,
		CreatedAt:   time.Now(),
	}

	pngData, err := s.Render(s.ScanURL(qr.PublicID), qr.StyleConfig, dto.Logo)
	if err != nil {
		return nil, nil, err
	}

	if err := s.db.WithContext(ctx).Create(&qr).Error; err != nil {
		return nil, nil, err
	}

	s.audit.LogAction(dto.UserID, ActionCreateQR, qr.PublicID, map[string]interface{}{
		"short_code": link.ShortCode,
		"style":      qr.StyleConfig.Style,
		"color_type": qr.StyleConfig.ColorType,
	}, dto.IPAddress)

	return &qr, pngData, nil
}

// GetQRCode returns the stored QR code and a fresh render of it. Logos are
// not stored, so the render carries none.
func (s *QRService) GetQRCode(ctx context.Context, publicID string) (*models.QRCode, []byte, error) {
	qr, err := s.findActive(ctx, publicID)
	if err != nil {
		return nil, nil, err
	}
	pngData, err := s.Render(s.ScanURL(qr.PublicID), qr.StyleConfig, nil)
	if err != nil {
		return nil, nil, err
	}
	return qr, pngData, nil
}

// RecordScan queues a scan event and returns the destination URL.
func (s *QRService) RecordScan(ctx context.Context, publicID string, visit Visit) (string, error) {
	qr, err := s.findActive(ctx, publicID)
	if err != nil {
		return "", err
	}

	var link models.URL
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", qr.URLID, true).First(&link).Error; err != nil {
		return "", notFound(err)
	}

	s.stats.RecordScanAsync(models.QRAnalytics{
		QRCodeID:  qr.ID,
		Timestamp: time.Now(),
		IPAddress: visit.IPAddress,
		UserAgent: visit.UserAgent,
		Referrer:  visit.Referrer,
	})
	return link.OriginalURL, nil
}

func (s *QRService) findActive(ctx context.Context, publicID string) (*models.QRCode, error) {
	if _, err := uuid.Parse(publicID); err != nil {
		return nil, ErrNotFound
	}
	var qr models.QRCode
	if err := s.db.WithContext(ctx).Where("public_id = ? AND is_active = ?", publicID, true).First(&qr).Error; err != nil {
		return nil, notFound(err)
	}
	return &qr, nil
}

// notFound maps a missing row to ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
