package welcome

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"math/rand/v2"
	"regexp"

	"github.com/go-pdf/fpdf"

	"gitlab.com/dirk.krummacker/surf-contacts/internal/logger"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/metrics"
)

// Page geometry in points. The page is A4 portrait.
const (
	pageWidth  = 595.0
	pageHeight = 842.0
	left       = 50.0
)

// DefaultOpacity is the alpha of the background image.
const DefaultOpacity = 0.3

type rgb struct {
	r, g, b int
}

var (
	accent  = rgb{0, 102, 204}
	dark    = rgb{26, 26, 26}
	body    = rgb{51, 51, 51}
	muted   = rgb{77, 77, 77}
	boxFill = rgb{242, 247, 255}
)

var paragraph = []string{
	"We're thrilled to have you join our kitesurfing",
	"community! Get ready for incredible adventures,",
	"new friendships, and unforgettable experiences",
	"on the water.",
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// Rand picks the background. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type defaultRand struct{}

func (defaultRand) IntN(n int) int { return rand.IntN(n) }

// Options tune the generator. Zero values select the defaults.
type Options struct {
	Opacity            float64
	Rand               Rand
	Logger             *logger.Logger
	Metrics            *metrics.Metrics
	DisableCompression bool
}

// Generator renders the one-page welcome document handed to new community members.
type Generator struct {
	backgrounds BackgroundSource
	opacity     float64
	rand        Rand
	logg        *logger.Logger
	metrics     *metrics.Metrics
	compress    bool
}

func NewGenerator(backgrounds BackgroundSource, opts Options) *Generator {
	g := &Generator{
		backgrounds: backgrounds,
		opacity:     opts.Opacity,
		rand:        opts.Rand,
		logg:        opts.Logger,
		metrics:     opts.Metrics,
		compress:    !opts.DisableCompression,
	}
	if g.opacity <= 0 || g.opacity > 1 {
		g.opacity = DefaultOpacity
	}
	if g.rand == nil {
		g.rand = defaultRand{}
	}
	if g.logg == nil {
		g.logg = logger.Nop()
	}
	return g
}

// Filename is the download name of the welcome document for the given contact name.
func Filename(name string) string {
	return "welcome-" + unsafeFilenameChars.ReplaceAllString(name, "_") + ".pdf"
}

// Render produces the PDF for a member. A background that cannot be loaded is logged and left
// out; the rest of the page is always drawn.
func (g *Generator) Render(ctx context.Context, name, code string) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetCompression(g.compress)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	g.drawBackground(ctx, pdf)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(x, y float64, style string, size float64, c rgb, s string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetTextColor(c.r, c.g, c.b)
		pdf.Text(x, y, tr(s))
	}

	text(left, 150, "", 32, dark, "Welcome to Our")
	text(left, 200, "B", 42, accent, "Kitesurfing Community!")
	text(left, 280, "", 20, dark, fmt.Sprintf("Dear %s,", name))
	for i, line := range paragraph {
		text(left, 330+float64(i)*25, "", 14, body, line)
	}
	text(left, 470, "B", 16, dark, "Your Personal Invite Code:")

	pdf.SetLineWidth(3)
	pdf.SetDrawColor(accent.r, accent.g, accent.b)
	pdf.SetFillColor(boxFill.r, boxFill.g, boxFill.b)
	pdf.Rect(left, 490, 250, 60, "FD")
	text(left+20, 532, "B", 28, accent, code)

	text(left, pageHeight-80, "", 14, muted, "See you on the water!")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render welcome document: %w", err)
	}
	g.metrics.IncDocumentRendered()
	return buf.Bytes(), nil
}

func (g *Generator) drawBackground(ctx context.Context, pdf *fpdf.Fpdf) {
	if g.backgrounds == nil {
		return
	}
	names := g.backgrounds.Names()
	if len(names) == 0 {
		return
	}
	name := names[g.rand.IntN(len(names))]
	if err := g.placeBackground(ctx, pdf, name); err != nil {
		pdf.ClearError()
		pdf.SetAlpha(1, "Normal")
		g.metrics.IncBackgroundFallback()
		g.logg.Warn(g.logg.WithField(ctx, "background", name), "background image skipped", err)
	}
}

// placeBackground scales the image to cover the page and anchors it at the bottom left corner.
func (g *Generator) placeBackground(ctx context.Context, pdf *fpdf.Fpdf, name string) error {
	rc, err := g.backgrounds.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("decode %s: empty image", name)
	}

	opts := fpdf.ImageOptions{ImageType: format, AllowNegativePosition: true}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("embed %s: %w", name, err)
	}

	scale := math.Max(pageWidth/float64(cfg.Width), pageHeight/float64(cfg.Height))
	w, h := float64(cfg.Width)*scale, float64(cfg.Height)*scale
	pdf.SetAlpha(g.opacity, "Normal")
	pdf.ImageOptions(name, 0, pageHeight-h, w, h, false, opts, 0, "")
	pdf.SetAlpha(1, "Normal")
	return pdf.Error()
}
