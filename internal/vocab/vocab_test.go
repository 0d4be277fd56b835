package vocab_test

import (
	"os"
	"path/filepath"
	"testing"

	"funding_digest/internal/vocab"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	v, err := vocab.Default()
	require.NoError(t, err)
	require.Contains(t, v.Regions.Home, "stockholm")
	require.Contains(t, v.Regions.LocalMarkers(), "nordic")
	require.NotContains(t, v.Regions.Home, "nordic")
	require.NotEmpty(t, v.FundingVerbs)
	require.Equal(t, "SEK", v.Currencies["sek"])
	require.Equal(t, "Breakit", v.SourcePriority[0])
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	v, err := vocab.Load("")
	require.NoError(t, err)
	require.NotEmpty(t, v.Rounds)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := vocab.Load("/nonexistent/vocab.yaml")
	require.Error(t, err)
}

func TestLoad_CustomFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	content := `
regions:
  home: [oslo]
funding_signals: [raises]
funding_verbs: [raises]
currencies:
  nok: NOK
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v, err := vocab.Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"oslo"}, v.Regions.Home)
	require.Empty(t, v.Exclusions)
}

func TestParse_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "no home regions",
			yaml:    `funding_signals: [raises]`,
			wantErr: vocab.ErrNoHomeRegions,
		},
		{
			name: "no funding signals",
			yaml: `
regions: {home: [sweden]}
funding_verbs: [raises]`,
			wantErr: vocab.ErrNoFundingSignals,
		},
		{
			name: "no currencies",
			yaml: `
regions: {home: [sweden]}
funding_signals: [raises]
funding_verbs: [raises]`,
			wantErr: vocab.ErrNoCurrencies,
		},
		{
			name: "broken pattern",
			yaml: `
regions: {home: [sweden]}
funding_signals: [raises]
funding_verbs: [raises]
currencies: {sek: SEK}
bad_title_patterns: ['(top']`,
			wantErr: vocab.ErrBadPattern,
		},
		{
			name: "unknown round",
			yaml: `
regions: {home: [sweden]}
funding_signals: [raises]
funding_verbs: [raises]
currencies: {sek: SEK}
rounds:
  - pattern: 'series\s+z'
    round: Series Z`,
			wantErr: vocab.ErrUnknownRound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := vocab.Parse([]byte(tc.yaml))
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := vocab.Parse([]byte("regions: [unclosed"))
	require.Error(t, err)
}
