// Package browse is a terminal list browser for the catalog served by the API.
package browse

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/listview"
)

var ErrUnknownEntity = fmt.Errorf("unknown entity, expected one of: %s", strings.Join(catalog.Kinds, ", "))

// NewModel returns the list screen of the named entity kind (e.g. "majors" or "admission-methods").
func NewModel(entity string, c *Client, pageSize int) (tea.Model, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(entity)), "-", "_") {
	case catalog.UniversityKind.Name:
		return modelFor(catalog.UniversityKind, c, pageSize), nil
	case catalog.MajorKind.Name:
		return modelFor(catalog.MajorKind, c, pageSize), nil
	case catalog.ProgramKind.Name:
		return modelFor(catalog.ProgramKind, c, pageSize), nil
	case catalog.ScholarshipKind.Name:
		return modelFor(catalog.ScholarshipKind, c, pageSize), nil
	case catalog.AdmissionMethodKind.Name:
		return modelFor(catalog.AdmissionMethodKind, c, pageSize), nil
	case catalog.NewsKind.Name:
		return modelFor(catalog.NewsKind, c, pageSize), nil
	default:
		return nil, ErrUnknownEntity
	}
}

func modelFor[E catalog.Entity[E]](kind catalog.Kind[E], c *Client, pageSize int) *model[E] {
	fetch := listview.FetchFunc[E](func(ctx context.Context) ([]E, error) {
		return FetchAll(ctx, c, kind)
	})
	return newModel(kind, fetch, pageSize)
}

// Run opens the browser in the alternate screen until the user quits.
func Run(entity, apiURL string, pageSize int) error {
	m, err := NewModel(entity, NewClient(apiURL), pageSize)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
