package main

import (
	"errors"

	"github.com/alnah/mdprint"
	"github.com/alnah/mdprint/internal/assets"
	"github.com/alnah/mdprint/internal/config"
	"github.com/alnah/mdprint/internal/hints"
)

// hintContext carries what the hints need to know about the current run.
type hintContext struct {
	configName string
	runtimeDir string
}

// hintFor returns an actionable hint for err, or "" when none applies.
func (hc *hintContext) hintFor(err error) string {
	if hc == nil {
		hc = &hintContext{}
	}
	switch {
	case errors.Is(err, mdprint.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, mdprint.ErrRenderTimeout):
		return hints.ForTimeout()
	case errors.Is(err, mdprint.ErrRuntimeNotLoaded):
		return hints.ForRuntimeNotLoaded(hc.runtimeDir)
	case errors.Is(err, mdprint.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.ListStyles())
	case errors.Is(err, config.ErrConfigNotFound):
		name := hc.configName
		if name == "" {
			name = defaultConfigName
		}
		return hints.ForConfigNotFound(config.SearchPaths(name))
	case errors.Is(err, ErrCreateOutputDir):
		return hints.ForOutputDirectory()
	}
	return ""
}
