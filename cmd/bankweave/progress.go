package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// progressBar adapts engine progress callbacks to a terminal bar. The bar is
// created lazily once the total is known.
type progressBar struct {
	writer      io.Writer
	bar         *progressbar.ProgressBar
	description string
}

func newProgressBar(w io.Writer, description string) *progressBar {
	return &progressBar{writer: w, description: description}
}

func (p *progressBar) update(done, total int) {
	if total == 0 {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]"+p.description+"[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(p.writer); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		)
	}
	if err := p.bar.Set(done); err != nil {
		slog.Debug("Failed to update progress bar", "error", err)
	}
}

func (p *progressBar) finish() {
	if p.bar == nil {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Debug("Failed to finish progress bar", "error", err)
	}
}
