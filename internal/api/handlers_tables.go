package api

import (
	"net/http"

	"github.com/dgallion1/docstruct/internal/doctree"
	"github.com/dgallion1/docstruct/internal/tables"
)

type mergeRequest struct {
	Fragments []doctree.Table `json:"fragments"`
	// Captions, when given, fill in table numbers missing from fragments.
	Captions []doctree.TableCaption `json:"captions"`
}

type mergeResponse struct {
	Tables    []doctree.Table          `json:"tables"`
	MultiPage []doctree.MultiPageTable `json:"multi_page"`
	Warnings  []tables.GroupWarning    `json:"warnings"`
	Fragments int                      `json:"fragments"`
}

func (s *Server) handleTablesMerge(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxTextBytes)

	var req mergeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Fragments) == 0 {
		jsonError(w, "at least one fragment is required", http.StatusBadRequest)
		return
	}

	frags := req.Fragments
	if len(req.Captions) > 0 {
		frags = tables.AttachCaptions(frags, req.Captions)
	}

	merged, warnings := tables.MergeAll(frags)
	d := tables.DetectMultiPageTables(frags)
	for _, gw := range warnings {
		s.log.Warn("table group not merged", "table", gw.TableNumber, "fragments", gw.Fragments, "reason", gw.Reason)
	}

	resp := mergeResponse{
		Tables:    merged,
		MultiPage: d.Tables,
		Warnings:  warnings,
		Fragments: len(req.Fragments),
	}
	if resp.MultiPage == nil {
		resp.MultiPage = []doctree.MultiPageTable{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []tables.GroupWarning{}
	}
	writeJSON(w, http.StatusOK, resp)
}
