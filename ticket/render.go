// Package ticket draws the PNG ticket sent to attendees after a booking.
package ticket

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"eventhub/media"
)

const (
	width   = 800
	headerH = 120
	detailH = 200
	margin  = 20
	qrSize  = 150
	footerY = headerH + detailH + 20
	posterH = 300
)

// Details are the printed lines of a ticket.
type Details struct {
	Title     string
	Host      string
	Venue     string
	Date      string
	Time      string
	Tickets   int
	Amount    string
	BookingID string
	PosterURL string
}

type Renderer struct {
	logo image.Image
	http *http.Client
}

// NewRenderer loads the logo from logoPath. A missing logo is not an error,
// the header is then left blank.
func NewRenderer(logoPath string) *Renderer {
	r := &Renderer{http: &http.Client{Timeout: 10 * time.Second}}
	if raw, err := os.ReadFile(logoPath); err == nil {
		if img, _, err := media.Decode(raw); err == nil {
			r.logo = img
		}
	}
	return r
}

func (r *Renderer) Render(ctx context.Context, d Details) ([]byte, error) {
	qr, err := qrcode.New(d.BookingID, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}

	poster := r.fetchPoster(ctx, d.PosterURL)
	canvasH := footerY + posterH
	if poster != nil {
		pb := poster.Bounds()
		canvasH = footerY + (width-2*margin)*pb.Dy()/max(pb.Dx(), 1) + margin
	}

	img := image.NewRGBA(image.Rect(0, 0, width, canvasH))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	if r.logo != nil {
		lb := r.logo.Bounds()
		logoW := 200
		logoH := lb.Dy() * logoW / max(lb.Dx(), 1)
		draw.CatmullRom.Scale(img, image.Rect(margin, margin-10, margin+logoW, margin-10+logoH), r.logo, lb, draw.Over, nil)
	}

	qrImg := qr.Image(qrSize)
	draw.Draw(img, image.Rect(width-margin-qrSize, margin, width-margin, margin+qrSize), qrImg, image.Point{}, draw.Over)

	face := basicfont.Face7x13
	text(img, face, margin, headerH+10, "Event Details:")
	lines := []string{
		"Event: " + d.Title,
		"Host: " + d.Host,
		"Venue: " + d.Venue,
		"Date: " + d.Date,
		"Time: " + d.Time,
		fmt.Sprintf("Tickets: %d", d.Tickets),
		"Amount Paid: Rs. " + d.Amount,
		"Booking ID: " + d.BookingID,
	}
	for i, l := range lines {
		text(img, face, margin, headerH+40+i*22, l)
	}

	sep := color.RGBA{0xcc, 0xcc, 0xcc, 0xff}
	for x := margin; x < width-margin; x++ {
		img.Set(x, headerH+detailH, sep)
	}

	if poster != nil {
		pb := poster.Bounds()
		boxW := width - 2*margin
		boxH := boxW * pb.Dy() / max(pb.Dx(), 1)
		draw.CatmullRom.Scale(img, image.Rect(margin, footerY, margin+boxW, footerY+boxH), poster, pb, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func text(dst draw.Image, face font.Face, x, y int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// fetchPoster returns nil when the poster cannot be loaded.
func (r *Renderer) fetchPoster(ctx context.Context, url string) image.Image {
	if url == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil
	}
	img, _, err := media.Decode(raw)
	if err != nil {
		return nil
	}
	return img
}
