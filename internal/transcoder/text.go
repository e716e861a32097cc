package transcoder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"github.com/therealutkarshpriyadarshi/vfx/pkg/models"
)

// TextOverlay describes a text caption drawn over part of a clip
type TextOverlay struct {
	Text     string
	FontSize int
	// Color is an ffmpeg color: a name, #rrggbb or 0xrrggbb
	Color string
	// Font is a font file path or a fontconfig family name
	Font string
	// X and Y are anchors ("left", "center", "bottom", ...) or pixel offsets
	X, Y string
	// Start is the first visible second. Duration <= 0 means until the end.
	Start    float64
	Duration float64
}

// OverlayText burns a caption into the clip between Start and
// Start+Duration seconds. Audio is re-encoded with the configured codec.
func (c *ClipEditor) OverlayText(ctx context.Context, src, dst string, overlay TextOverlay) error {
	if overlay.FontSize <= 0 {
		return fmt.Errorf("%w: font size must be positive, got %d", models.ErrInvalidParameter, overlay.FontSize)
	}
	if overlay.Start < 0 {
		return fmt.Errorf("%w: start must not be negative, got %v", models.ErrInvalidParameter, overlay.Start)
	}

	x, err := PositionExpr(overlay.X, true)
	if err != nil {
		return err
	}
	y, err := PositionExpr(overlay.Y, false)
	if err != nil {
		return err
	}

	info, err := c.load(ctx, src)
	if err != nil {
		return err
	}

	// Text goes through a file so drawtext never parses it
	textFile, err := os.CreateTemp("", "vfx-text-*.txt")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	defer os.Remove(textFile.Name())

	if _, err := textFile.WriteString(overlay.Text); err != nil {
		textFile.Close()
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	if err := textFile.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}

	kwargs := c.outputArgs(info)
	kwargs["vf"] = drawTextFilter(overlay, textFile.Name(), x, y)

	return c.render(ctx, ffmpeg.Input(src).Output(dst, kwargs))
}

func drawTextFilter(overlay TextOverlay, textFile, x, y string) string {
	opts := []string{
		"textfile=" + escapeFilterValue(textFile),
		"expansion=none",
		"fontsize=" + strconv.Itoa(overlay.FontSize),
		"fontcolor=" + escapeFilterValue(overlay.Color),
		"x=" + escapeFilterValue(x),
		"y=" + escapeFilterValue(y),
	}

	if overlay.Font != "" {
		if looksLikeFontFile(overlay.Font) {
			opts = append(opts, "fontfile="+escapeFilterValue(overlay.Font))
		} else {
			opts = append(opts, "font="+escapeFilterValue(overlay.Font))
		}
	}

	// Without a duration the caption stays up until the stream ends, whatever
	// the container reports as its length
	enable := fmt.Sprintf("gte(t,%s)", formatFloat(overlay.Start))
	if overlay.Duration > 0 {
		enable = fmt.Sprintf("between(t,%s,%s)", formatFloat(overlay.Start), formatFloat(overlay.Start+overlay.Duration))
	}
	opts = append(opts, "enable="+escapeFilterValue(enable))

	return "drawtext=" + strings.Join(opts, ":")
}

// PositionExpr converts an anchor name or pixel offset into a drawtext
// coordinate expression
func PositionExpr(anchor string, horizontal bool) (string, error) {
	anchor = strings.ToLower(strings.TrimSpace(anchor))
	if anchor == "" {
		anchor = "center"
	}

	if px, err := strconv.ParseFloat(anchor, 64); err == nil {
		return formatFloat(px), nil
	}

	if horizontal {
		switch anchor {
		case "left":
			return "0", nil
		case "center":
			return "(w-text_w)/2", nil
		case "right":
			return "w-text_w", nil
		}
	} else {
		switch anchor {
		case "top":
			return "0", nil
		case "center":
			return "(h-text_h)/2", nil
		case "bottom":
			return "h-text_h", nil
		}
	}

	axis := "vertical"
	if horizontal {
		axis = "horizontal"
	}
	return "", fmt.Errorf("%w: unknown %s position %q", models.ErrInvalidParameter, axis, anchor)
}

func looksLikeFontFile(font string) bool {
	switch strings.ToLower(filepath.Ext(font)) {
	case ".ttf", ".otf", ".ttc", ".pfb":
		return true
	}
	return strings.ContainsRune(font, os.PathSeparator)
}

// escapeFilterValue escapes a value for the option level and then for the
// filtergraph level of an ffmpeg filter description
func escapeFilterValue(v string) string {
	option := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`).Replace(v)
	return strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`,`, `\,`,
		`;`, `\;`,
		`[`, `\[`,
		`]`, `\]`,
	).Replace(option)
}
