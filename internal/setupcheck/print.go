package setupcheck

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

type palette struct {
	green, red, yellow, blue *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		blue:   color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.green, p.red, p.yellow, p.blue} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) prefix(l Level) string {
	switch l {
	case Success:
		return p.green.Sprint("✓")
	case Error:
		return p.red.Sprint("✗")
	case Warning:
		return p.yellow.Sprint("⚠")
	}
	return p.blue.Sprint("ℹ")
}

var nextSteps = []string{
	"Complete the deployment checklist above",
	"Read DEPLOYMENT.md for detailed instructions",
	"Set up environment variables locally",
	"Push to GitHub to trigger CI/CD",
	"Monitor deployment on Vercel dashboard",
}

// Print writes r as a categorized checklist.
func Print(w io.Writer, r Report, colored bool) {
	p := newPalette(colored)

	fmt.Fprintf(w, "\n%s\n", p.blue.Sprint("═══ Validation Summary"))
	for _, s := range r.Sections {
		fmt.Fprintf(w, "\n%s\n\n", p.blue.Sprint("═══ "+s.Title))
		for _, l := range s.Lines {
			fmt.Fprintf(w, "%s %s\n", p.prefix(l.Level), l.Message)
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", p.blue.Sprint("═══ Next Steps"))
	for i, step := range nextSteps {
		fmt.Fprintf(w, "%s %s\n", p.green.Sprintf("%d.", i+1), step)
	}
	fmt.Fprintln(w)

	if r.OK() {
		fmt.Fprintf(w, "%s\n\n", p.green.Sprint("✓ All required files present!"))
	} else {
		fmt.Fprintf(w, "%s\n\n", p.red.Sprint("✗ Some required files are missing!"))
	}
}
