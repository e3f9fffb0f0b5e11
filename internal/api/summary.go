package api

import "github.com/fouedh91760/a-level-saver-sub001/internal/snapshot"

func summarize(snap *snapshot.Snapshot) CatalogSummary {
	cat := snap.Catalog
	out := CatalogSummary{
		Version:         cat.Version(),
		LoadedAt:        snap.LoadedAt,
		Escape:          cat.EscapeMode(),
		DefaultTemplate: cat.DefaultTemplate(),
		States:          []StateSummary{},
		Intentions:      []IntentionSummary{},
		Resolutions:     []ResolutionSummary{},
		Templates:       cat.Templates(),
		Partials:        cat.Partials(),
		Warnings:        cat.Warnings(),
	}
	for _, st := range cat.States() {
		out.States = append(out.States, StateSummary{
			Name:        st.Name,
			Priority:    st.Priority,
			Severity:    string(st.Severity),
			Description: st.Description,
			Flags:       st.Flags,
		})
	}
	for _, name := range cat.Intentions() {
		def, _ := cat.Intention(name)
		out.Intentions = append(out.Intentions, IntentionSummary{Name: def.Name, Description: def.Description})
	}
	for _, e := range cat.Resolutions() {
		out.Resolutions = append(out.Resolutions, ResolutionSummary{
			State:     e.StateKey,
			Intention: e.IntentionKey,
			Template:  e.TemplateID,
			Flags:     e.Flags,
		})
	}
	return out
}
