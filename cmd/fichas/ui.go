package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ui writes human output to out, colored only when out is a terminal.
type ui struct {
	out     io.Writer
	noColor bool
}

func newUI(out io.Writer) *ui {
	noColor := true
	if f, ok := out.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	return &ui{out: out, noColor: noColor}
}

func (u *ui) print(attr color.Attribute, prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if u.noColor {
		fmt.Fprintf(u.out, "%s %s\n", prefix, msg)
		return
	}
	c := color.New(attr)
	c.EnableColor()
	c.Fprintf(u.out, "%s %s\n", prefix, msg)
}

func (u *ui) success(format string, args ...any) { u.print(color.FgGreen, "✓", format, args...) }
func (u *ui) warn(format string, args ...any)    { u.print(color.FgYellow, "!", format, args...) }
func (u *ui) fail(format string, args ...any)    { u.print(color.FgRed, "✗", format, args...) }
func (u *ui) info(format string, args ...any)    { u.print(color.FgCyan, "•", format, args...) }
