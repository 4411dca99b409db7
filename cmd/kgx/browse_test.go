package main

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-kgx/pkg/transformer"
)

func loadFixture(t *testing.T) browser {
	t.Helper()
	path := writeFile(t, t.TempDir(), "graph.json", fixture)
	tr, err := transformer.Load(context.Background(), []string{path}, "")
	require.NoError(t, err)
	return newBrowser(tr.Graph(), path)
}

func send(t *testing.T, b browser, msgs ...tea.Msg) browser {
	t.Helper()
	for _, msg := range msgs {
		m, _ := b.Update(msg)
		b = m.(browser)
	}
	return b
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowserTabs(t *testing.T) {
	b := send(t, loadFixture(t), tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, summaryView, b.current)
	assert.Contains(t, b.View(), "Nodes: 2")

	b = send(t, b, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, nodesView, b.current)
	assert.Contains(t, b.View(), "HGNC:11603")

	b = send(t, b, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, summaryView, b.current)

	b = send(t, b, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, edgesView, b.current)
	assert.Contains(t, b.View(), "has_phenotype")
}

func TestBrowserSearch(t *testing.T) {
	b := send(t, loadFixture(t), tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Len(t, b.nodes.Rows(), 2)

	b = send(t, b, runes("/"))
	assert.Equal(t, nodesView, b.current)
	require.True(t, b.search.Focused())

	b = send(t, b, runes("hp"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, b.search.Focused())
	require.Len(t, b.nodes.Rows(), 1)
	assert.Equal(t, "HP:0000003", b.nodes.Rows()[0][0])
	assert.Len(t, b.edges.Rows(), 1, "edges touching the match are kept")

	b = send(t, b, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, b.nodes.Rows(), 2)
}

func TestBrowserQuit(t *testing.T) {
	b := loadFixture(t)
	_, cmd := b.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestCountCategories(t *testing.T) {
	b := loadFixture(t)
	require.Len(t, b.categories, 2)
	assert.Equal(t, "gene", b.categories[0].category)
	assert.Equal(t, 1, b.categories[0].count)
}
