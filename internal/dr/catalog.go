package dr

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
)

// ListBackups reconstructs the catalog of existing backups by scanning the
// backups/ namespace of the object store. Objects are grouped by backup id
// (the first path segment under backups/) and classified into roles by
// filename suffix. Groups missing one or more roles are still returned.
// The result is sorted descending by timestamp: manifest timestamp when the
// manifest is present and parseable, the id-derived timestamp otherwise.
func (s *DRService) ListBackups(ctx context.Context) ([]*Backup, error) {
	keys, err := s.store.List(ctx, backupPrefix)
	if err != nil {
		return nil, Errorf(KindInternal, "listing backups failed: %w", err)
	}

	// Group object keys by backup id, preserving first-seen order.
	groups := make(map[string]map[string]string)
	var ids []string
	for _, key := range keys {
		rest, ok := strings.CutPrefix(key, backupPrefix)
		if !ok {
			continue
		}
		id, _, ok := strings.Cut(rest, "/")
		if !ok || id == "" {
			continue
		}
		if _, seen := groups[id]; !seen {
			groups[id] = make(map[string]string)
			ids = append(ids, id)
		}
		switch {
		case strings.HasSuffix(key, realtimeObjectName):
			groups[id]["realtime"] = key
		case strings.HasSuffix(key, ".zip"):
			groups[id]["github"] = key
		case strings.HasSuffix(key, manifestObjectName):
			groups[id]["manifest"] = key
		}
	}

	items := make([]*Backup, 0, len(ids))
	for _, id := range ids {
		b, err := s.describeBackup(ctx, id, groups[id])
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp > items[j].Timestamp
	})
	return items, nil
}

// describeBackup builds one catalog entry from the grouped object keys.
func (s *DRService) describeBackup(ctx context.Context, id string, roles map[string]string) (*Backup, error) {
	b := &Backup{ID: id}
	for role, key := range roles {
		desc, err := s.describeObject(ctx, key)
		if err != nil {
			return nil, Errorf(KindInternal, "describing %s failed: %w", key, err)
		}
		switch role {
		case "realtime":
			b.Files.Realtime = desc
		case "github":
			b.Files.GitHub = desc
		case "manifest":
			b.Files.Manifest = desc
		}
	}

	if t, err := TimestampFromID(id); err == nil {
		b.Timestamp = t.UTC().Format(isoMillis)
	}

	// The manifest, when readable, is the authority for the timestamp.
	if b.Files.Manifest != nil {
		if body, err := s.store.Download(ctx, b.Files.Manifest.Path); err == nil {
			var m Manifest
			if err := json.Unmarshal(body, &m); err == nil && m.Timestamp != "" {
				b.Timestamp = m.Timestamp
			}
		}
	}
	return b, nil
}
