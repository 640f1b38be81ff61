// Package compose turns a catalog snapshot and the view settings into the
// sections the popup shows. Compose is pure: the same input always yields
// the same result, and no id appears twice in it.
package compose

import (
	"sort"

	"github.com/agentx-labs/extswitch/internal/catalog"
	"github.com/agentx-labs/extswitch/internal/settings"
	"github.com/samber/lo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Mode is one of the three mutually exclusive layouts.
type Mode int

const (
	// ModeOnlyPinned shows the pinned items only, without headings.
	ModeOnlyPinned Mode = iota
	// ModeFlat shows one sorted list without headings; nothing is pinned.
	ModeFlat
	// ModeSectioned shows a pinned section and a main section, both headed.
	ModeSectioned
)

func (m Mode) String() string {
	switch m {
	case ModeOnlyPinned:
		return "only-pinned"
	case ModeFlat:
		return "flat"
	case ModeSectioned:
		return "sectioned"
	}
	return "unknown"
}

// Input is everything a composition depends on.
type Input struct {
	Items             []catalog.Item
	SelfID            string
	Pinned            []string
	Hidden            []string
	Sort              settings.SortMode
	OnlyPinnedVisible bool
}

// Result is the composed view. In ModeOnlyPinned Main is empty; in ModeFlat
// Pinned is empty. Empty reports the placeholder state: no pinned items in
// ModeOnlyPinned, otherwise an empty main list.
type Result struct {
	Mode              Mode
	Pinned            []catalog.Item
	Main              []catalog.Item
	ShowPinnedHeading bool
	ShowMainHeading   bool
	Empty             bool
}

// Items returns every shown item in display order.
func (r Result) Items() []catalog.Item {
	out := make([]catalog.Item, 0, len(r.Pinned)+len(r.Main))
	out = append(out, r.Pinned...)
	return append(out, r.Main...)
}

// Compose builds the view.
func Compose(in Input) Result {
	hidden := lo.SliceToMap(in.Hidden, func(id string) (string, struct{}) { return id, struct{}{} })

	seen := make(map[string]struct{}, len(in.Items))
	visible := make([]catalog.Item, 0, len(in.Items))
	for _, it := range in.Items {
		if it.ID == in.SelfID {
			continue
		}
		if _, ok := hidden[it.ID]; ok {
			continue
		}
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		visible = append(visible, it)
	}

	byID := lo.KeyBy(visible, func(it catalog.Item) string { return it.ID })
	pinnedIDs := lo.Uniq(in.Pinned)
	pinnedSet := make(map[string]struct{}, len(pinnedIDs))
	var pinned []catalog.Item
	for _, id := range pinnedIDs {
		pinnedSet[id] = struct{}{}
		if it, ok := byID[id]; ok {
			pinned = append(pinned, it)
		}
	}
	others := lo.Filter(visible, func(it catalog.Item, _ int) bool {
		_, ok := pinnedSet[it.ID]
		return !ok
	})

	switch {
	case in.OnlyPinnedVisible:
		return Result{Mode: ModeOnlyPinned, Pinned: pinned, Empty: len(pinned) == 0}
	case len(pinned) == 0:
		main := Sort(others, in.Sort, pinnedSet)
		return Result{Mode: ModeFlat, Main: main, Empty: len(main) == 0}
	default:
		main := Sort(others, in.Sort, pinnedSet)
		return Result{
			Mode:              ModeSectioned,
			Pinned:            pinned,
			Main:              main,
			ShowPinnedHeading: true,
			ShowMainHeading:   true,
			Empty:             len(main) == 0,
		}
	}
}

// Sort returns a sorted copy of items. Names compare with English
// collation; equal names fall back to id. An unknown mode keeps the input
// order.
func Sort(items []catalog.Item, mode settings.SortMode, pinned map[string]struct{}) []catalog.Item {
	out := append([]catalog.Item(nil), items...)
	if !mode.Valid() {
		return out
	}

	// Collators are not safe for concurrent use.
	col := collate.New(language.English)
	byName := func(a, b catalog.Item) int {
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	}
	isPinned := func(it catalog.Item) bool {
		_, ok := pinned[it.ID]
		return ok
	}

	var less func(a, b catalog.Item) bool
	switch mode {
	case settings.SortNameAsc:
		less = func(a, b catalog.Item) bool { return byName(a, b) < 0 }
	case settings.SortNameDesc:
		less = func(a, b catalog.Item) bool { return byName(a, b) > 0 }
	case settings.SortEnabledFirst:
		less = func(a, b catalog.Item) bool {
			if a.Enabled != b.Enabled {
				return a.Enabled
			}
			return byName(a, b) < 0
		}
	case settings.SortPinnedFirst:
		less = func(a, b catalog.Item) bool {
			if pa, pb := isPinned(a), isPinned(b); pa != pb {
				return pa
			}
			return byName(a, b) < 0
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
