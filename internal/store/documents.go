package store

import (
	"mime"
	"path/filepath"
	"sort"
)

const fallbackMIMEType = "application/octet-stream"

// GroupDocuments folds per-chunk metadata rows into one summary per
// distinct document id, counting the chunks that carry it. Rows missing
// either the document id or the filename are skipped rather than treated
// as an error. Summaries come back newest first.
func GroupDocuments(rows []Metadata) []DocumentInfo {
	byID := make(map[string]*DocumentInfo)
	order := make([]string, 0)

	for _, m := range rows {
		if m.DocumentID == "" || m.Filename == "" {
			continue
		}
		info, ok := byID[m.DocumentID]
		if !ok {
			info = &DocumentInfo{
				ID:         m.DocumentID,
				Name:       m.Filename,
				Type:       mimeType(m.Filename),
				Size:       m.FileSize,
				UploadedAt: m.UploadedAt,
				Category:   m.Category,
			}
			byID[m.DocumentID] = info
			order = append(order, m.DocumentID)
		}
		info.Chunks++
	}

	out := make([]DocumentInfo, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out
}

func mimeType(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return fallbackMIMEType
}
