package pipeline

import "github.com/mvickers/citecheck/internal/model"

// mergeRecords joins extraction, cluster, and verification data into the
// final per-citation records. Extracted fields only ever receive
// document-derived values; canonical fields only ever receive verification
// values. Provenance is tagged at assignment so the separation guard can
// tell agreement from contamination afterwards.
func mergeRecords(results []model.ExtractionResult, clusters []model.Cluster, verification map[string]model.VerificationRecord) []model.CitationRecord {
	byOffset := make(map[int]*model.Cluster, len(results))
	for i := range clusters {
		for _, m := range clusters[i].Members {
			byOffset[m.Span.Start] = &clusters[i]
		}
	}

	records := make([]model.CitationRecord, 0, len(results))
	for _, r := range results {
		rec := model.CitationRecord{
			Citation:   r.Citation,
			Method:     r.Method,
			Confidence: r.Confidence,

			// Per-span values are preserved before cluster propagation so
			// an explicit restore can re-apply them.
			OriginalCaseName: r.CaseName,
			OriginalDate:     r.Date,
		}

		name, date := r.CaseName, r.Date
		if cl, ok := byOffset[r.Span.Start]; ok {
			rec.ClusterID = cl.ID
			rec.IsParallel = cl.IsParallel
			if len(cl.Members) > 1 {
				rec.ParallelCitations = siblingCitations(cl, r.Citation)
			}
			// The cluster's name and year are document-derived too, just
			// attributed through a parallel member; they take display
			// precedence over a weaker per-span result.
			if cl.CaseName != nil {
				name = cl.CaseName
			}
			if cl.Year != nil {
				date = cl.Year
			}
		}

		rec.ExtractedCaseName = name
		rec.ExtractedDate = date
		if name != nil {
			rec.NameOrigin = model.OriginDocument
		}
		if date != nil {
			rec.DateOrigin = model.OriginDocument
		}

		if v, ok := verification[r.Citation]; ok {
			rec.CanonicalName = v.CanonicalName
			rec.CanonicalDate = v.CanonicalDate
			rec.CanonicalURL = v.CanonicalURL
			rec.Verified = v.Verified
			rec.Source = v.Source
			rec.Error = v.Error
			// Confidence only ever moves up: verification floors a
			// verified record at 0.5, never lowers an extraction score.
			if v.Verified && rec.Confidence < 0.5 {
				rec.Confidence = 0.5
			}
		}

		records = append(records, rec)
	}
	return records
}

// siblingCitations lists the other member citations of a cluster. The
// first occurrence of the record's own citation is skipped, so duplicate
// citation strings across distinct members survive.
func siblingCitations(cl *model.Cluster, self string) []string {
	out := make([]string, 0, len(cl.Members)-1)
	skipped := false
	for _, m := range cl.Members {
		if m.Citation == self && !skipped {
			skipped = true
			continue
		}
		out = append(out, m.Citation)
	}
	return out
}
