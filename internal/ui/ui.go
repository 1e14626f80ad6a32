package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/homebardev/homebar/internal/match"
)

var (
	accent    = lipgloss.Color("#22c55e")
	subtle    = lipgloss.Color("#666666")
	highlight = lipgloss.Color("#60a5fa")
	warning   = lipgloss.Color("#eab308")
	danger    = lipgloss.Color("#ef4444")
	info      = lipgloss.Color("#06b6d4")

	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Foreground(accent)

	errorStyle = lipgloss.NewStyle().
			Foreground(danger)

	mutedStyle = lipgloss.NewStyle().
			Foreground(subtle)

	greenStyle  = lipgloss.NewStyle().Foreground(accent)
	yellowStyle = lipgloss.NewStyle().Foreground(warning)
	redStyle    = lipgloss.NewStyle().Foreground(danger)
	cyanStyle   = lipgloss.NewStyle().Foreground(info)
	blueStyle   = lipgloss.NewStyle().Foreground(highlight)
)

func Green(text string) string {
	return greenStyle.Render(text)
}

func Yellow(text string) string {
	return yellowStyle.Render(text)
}

func Red(text string) string {
	return redStyle.Render(text)
}

func Cyan(text string) string {
	return cyanStyle.Render(text)
}

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects the message helpers. Error and Warn go to errOut.
func SetOutput(out, errOut io.Writer) {
	stdout, stderr = out, errOut
}

func Header(text string) {
	fmt.Fprintln(stdout, titleStyle.Render("🍸 "+text))
}

func Success(text string) {
	fmt.Fprintln(stdout, successStyle.Render("✓ "+text))
}

func Error(text string) {
	fmt.Fprintln(stderr, errorStyle.Render("✗ "+text))
}

func Info(text string) {
	fmt.Fprintln(stdout, "  "+text)
}

func Muted(text string) {
	fmt.Fprintln(stdout, mutedStyle.Render(text))
}

func Warn(text string) {
	fmt.Fprintln(stderr, yellowStyle.Render("⚠ "+text))
}

// InputIngredient asks for a new ingredient name, offering suggestions from
// the drink cache.
func InputIngredient(suggestions []string) (string, error) {
	var name string
	err := huh.NewInput().
		Title("New ingredient").
		Placeholder("Campari").
		Suggestions(suggestions).
		Value(&name).
		Run()
	return name, err
}

func SelectStrength() (match.Level, error) {
	return selectOne("Strength", match.Levels, func(l match.Level) string { return string(l) })
}

func SelectOption(title string, options []string) (string, error) {
	return selectOne(title, options, func(o string) string { return o })
}

func selectOne[T comparable](title string, values []T, label func(T) string) (T, error) {
	var selected T
	opts := make([]huh.Option[T], len(values))
	for i, v := range values {
		opts[i] = huh.NewOption(label(v), v)
	}
	err := huh.NewSelect[T]().
		Title(title).
		Options(opts...).
		Value(&selected).
		Run()
	return selected, err
}

func Confirm(question string, defaultVal bool) (bool, error) {
	result := defaultVal
	err := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&result).
		Run()
	return result, err
}

func Input(title, placeholder string) (string, error) {
	var value string
	err := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&value).
		Run()
	return value, err
}
