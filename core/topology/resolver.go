// Package topology turns free-form destination phrases into dispatch targets.
package topology

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/homemind/core/model"
)

var (
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("empty destination")
	// ErrUnsupported is returned when the phrase matches no zone nor the dock.
	ErrUnsupported = errors.New("unsupported destination")
)

// ResolutionError carries enough context to build a help message for the
// caller.
type ResolutionError struct {
	Input       string
	Err         error
	Zones       []string
	DockAliases []string
}

func (e *ResolutionError) Error() string {
	if errors.Is(e.Err, ErrEmpty) {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %q (supported: %s)", e.Err, e.Input, strings.Join(e.Supported(), ", "))
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Supported lists the canonical names accepted by the resolver.
func (e *ResolutionError) Supported() []string {
	out := make([]string, 0, len(e.Zones)+len(e.DockAliases))
	out = append(out, e.Zones...)
	return append(out, e.DockAliases...)
}

// Help renders the caller-facing message listing what can be asked for.
func (e *ResolutionError) Help() string {
	return fmt.Sprintf("不支持该指令哦～ 目前可调度机器人：\n1. 前往房间：%s\n2. 返回充电座：%s",
		strings.Join(e.Zones, "、"), strings.Join(e.DockAliases, "、"))
}

// Resolver maps phrases onto destinations. It is immutable once built and
// safe for concurrent use.
type Resolver struct {
	zones    []model.Zone
	dock     model.Destination
	aliases  []string
	synonyms map[string]string
	targets  map[string]model.Destination
}

// New builds a Resolver from a validated topology.
func New(cfg Config) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Resolver{
		zones:    append([]model.Zone(nil), cfg.Zones...),
		dock:     model.DockDestination(cfg.Dock.ID, cfg.Dock.Name),
		aliases:  append([]string(nil), cfg.Dock.Synonyms...),
		synonyms: make(map[string]string),
		targets:  make(map[string]model.Destination),
	}
	r.targets[cfg.Dock.ID] = r.dock
	r.targets[cfg.Dock.Name] = r.dock
	for _, s := range append(append([]string(nil), cfg.Dock.Synonyms...), cfg.Dock.Unlisted...) {
		r.synonyms[strings.TrimSpace(s)] = cfg.Dock.Name
	}
	for _, z := range cfg.Zones {
		d := model.ZoneDestination(z)
		r.targets[z.ID] = d
		r.targets[z.Name] = d
		for _, s := range z.Synonyms {
			r.synonyms[strings.TrimSpace(s)] = z.Name
		}
	}
	return r, nil
}

// Resolve trims raw, applies the synonym table and looks the result up as a
// canonical zone or dock name. It performs no I/O.
func (r *Resolver) Resolve(raw string) (model.Destination, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return model.Destination{}, r.fail(raw, ErrEmpty)
	}
	canonical := trimmed
	if c, ok := r.synonyms[trimmed]; ok {
		canonical = c
	}
	if d, ok := r.targets[canonical]; ok {
		return d, nil
	}
	return model.Destination{}, r.fail(trimmed, ErrUnsupported)
}

func (r *Resolver) fail(input string, err error) *ResolutionError {
	return &ResolutionError{
		Input:       input,
		Err:         err,
		Zones:       r.ZoneNames(),
		DockAliases: append([]string(nil), r.aliases...),
	}
}

// ZoneNames returns the display names of all zones in configuration order.
func (r *Resolver) ZoneNames() []string {
	names := make([]string, len(r.zones))
	for i, z := range r.zones {
		names[i] = z.Name
	}
	return names
}

// Zones returns a copy of the configured zones.
func (r *Resolver) Zones() []model.Zone {
	return append([]model.Zone(nil), r.zones...)
}

// Dock returns the dock destination.
func (r *Resolver) Dock() model.Destination { return r.dock }

// Help returns the same help text an unsupported phrase produces.
func (r *Resolver) Help() string { return r.fail("", ErrUnsupported).Help() }
