package fetcher

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
)

// progressWidth is the bar width in cells.
const progressWidth = 40

// progressReader renders a static progress bar while the body is read.
type progressReader struct {
	r     io.Reader
	out   io.Writer
	bar   progress.Model
	total int64
	read  int64
	shown int
}

func newProgressReader(r io.Reader, total int64, out io.Writer) *progressReader {
	return &progressReader{
		r:     r,
		out:   out,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
		total: total,
		shown: -1,
	}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)
	p.render()

	return n, err
}

// Done finishes the bar line.
func (p *progressReader) Done() {
	if p.shown >= 0 {
		_, _ = fmt.Fprintln(p.out)
	}
}

// render redraws the bar when the whole percentage changes. Unknown sizes are not drawn.
func (p *progressReader) render() {
	if p.total <= 0 {
		return
	}

	percent := int(min(p.read*100/p.total, 100))
	if percent == p.shown {
		return
	}

	p.shown = percent
	_, _ = fmt.Fprintf(p.out, "\r%s %3d%%", p.bar.ViewAs(float64(percent)/100), percent)
}
