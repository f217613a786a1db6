package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Epistemic-Technology/studysage/internal/config"
	"github.com/Epistemic-Technology/studysage/models"
)

// sourceOf requires exactly one of path, url and zoteroID.
func sourceOf(path, url, zoteroID string) (models.SourceInfo, error) {
	src := models.SourceInfo{Path: path, URL: url, ZoteroID: zoteroID}
	n := 0
	for _, v := range []string{path, url, zoteroID} {
		if v != "" {
			n++
		}
	}
	if n != 1 {
		return src, errors.New("exactly one of path, url or zotero_id is required")
	}
	return src, nil
}

// modeConfig applies a per-call mode override to the configured defaults.
func modeConfig(cfg *config.Config, mode string) (models.ModeConfig, error) {
	mc := cfg.ModeConfig()
	switch m := models.Mode(strings.ToLower(strings.TrimSpace(mode))); m {
	case "":
	case models.ModeOnline, models.ModeOffline:
		mc.Mode = m
	default:
		return mc, fmt.Errorf("invalid mode %q (expected 'online' or 'offline')", mode)
	}
	return mc, nil
}

func lengthsOf(cfg *config.Config, minLength, maxLength int) (int, int) {
	if minLength <= 0 {
		minLength = cfg.Summary.MinLength
	}
	if maxLength <= 0 {
		maxLength = cfg.Summary.MaxLength
	}
	return minLength, maxLength
}

func languageOf(cfg *config.Config, lang string) string {
	if lang == "" {
		return cfg.OCR.Language
	}
	return lang
}
