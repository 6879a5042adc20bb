package navigate

import (
	"strings"

	"collector/internal/datasource"
	"collector/internal/vectorstore"
)

func getString(metadata map[string]interface{}, key string) (string, bool) {
	v, ok := metadata[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// resolveParent derives the parent document id for an item, applying the
// per-source special cases below.
func resolveParent(source datasource.DataSource, metadata map[string]interface{}) string {
	if v, ok := getString(metadata, "parentId"); ok {
		return adjustConfluenceParent(source, metadata, v)
	}
	if v, ok := getString(metadata, "parentDocId"); ok {
		return adjustConfluenceParent(source, metadata, v)
	}
	if source == datasource.Drive {
		if _, ok := getString(metadata, "path"); ok {
			return ""
		}
	}
	return ""
}

// adjustConfluenceParent applies the confluence-comment special case: a
// comment's raw parent id refers to a page whose stored id is prefixed.
func adjustConfluenceParent(source datasource.DataSource, metadata map[string]interface{}, rawParentID string) string {
	if source == datasource.Confluence {
		if t, ok := getString(metadata, "type"); ok && t == "comment" {
			return "confluence_" + rawParentID
		}
	}
	return rawParentID
}

// childLogicalID derives the id used to match children's parentId field.
func childLogicalID(source datasource.DataSource, metadata map[string]interface{}, storedID string) string {
	switch source {
	case datasource.Slack, datasource.GitHub:
		return storedID
	default:
		if id, ok := getString(metadata, "id"); ok {
			return id
		}
		return storedID
	}
}

// contextType labels the surrounding container for an item, per source.
func contextType(source datasource.DataSource, metadata map[string]interface{}) string {
	docType, _ := getString(metadata, "type")
	switch source {
	case datasource.Slack:
		if _, ok := getString(metadata, "threadTs"); ok {
			return "thread"
		}
		return "channel"
	case datasource.Gmail:
		return "thread"
	case datasource.Jira:
		if docType == "comment" {
			return "issue"
		}
		return "project"
	case datasource.Drive:
		return "folder"
	case datasource.Confluence:
		if docType == "comment" {
			return "page"
		}
		return "space"
	case datasource.Calendar:
		return "calendar"
	case datasource.GitHub:
		if docType == "pr_comment" || docType == "pr_review" {
			return "pull_request"
		}
		return "repository"
	default:
		return "unknown"
	}
}

// folderFromPath extracts the folder portion of a drive path: the
// substring before the last "/".
func folderFromPath(path string) (string, bool) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", false
	}
	return path[:idx], true
}

// datapointPredicate builds the per-source sibling-datapoint predicate,
// trying each of a source's ranked fields in turn. The bool result is
// false when no predicate applies.
func datapointPredicate(source datasource.DataSource, metadata map[string]interface{}) (vectorstore.Predicate, bool) {
	switch source {
	case datasource.Slack:
		if v, ok := getString(metadata, "threadTs"); ok {
			return vectorstore.Eq("threadTs", v), true
		}
		if v, ok := getString(metadata, "channelId"); ok {
			return vectorstore.Eq("channelId", v), true
		}
		return nil, false
	case datasource.Gmail:
		if v, ok := getString(metadata, "threadId"); ok {
			return vectorstore.Eq("threadId", v), true
		}
		return nil, false
	case datasource.Jira:
		if v, ok := getString(metadata, "parentId"); ok {
			return vectorstore.Eq("parentId", v), true
		}
		if v, ok := getString(metadata, "project"); ok {
			return vectorstore.Eq("project", v), true
		}
		return nil, false
	case datasource.Drive:
		if v, ok := getString(metadata, "folderPath"); ok {
			return vectorstore.Eq("folderPath", v), true
		}
		if path, ok := getString(metadata, "path"); ok {
			if folder, ok := folderFromPath(path); ok {
				return vectorstore.Eq("folderPath", folder), true
			}
		}
		return nil, false
	case datasource.Confluence:
		if v, ok := getString(metadata, "parentId"); ok {
			return vectorstore.Eq("parentId", v), true
		}
		if v, ok := getString(metadata, "space"); ok {
			return vectorstore.Eq("space", v), true
		}
		return nil, false
	case datasource.Calendar:
		return vectorstore.Eq("source", "calendar"), true
	case datasource.GitHub:
		if v, ok := getString(metadata, "parentId"); ok {
			return vectorstore.Eq("parentId", v), true
		}
		if v, ok := getString(metadata, "repo"); ok {
			return vectorstore.Eq("repo", v), true
		}
		return nil, false
	default:
		return nil, false
	}
}

// contextPredicate builds the coarser per-source predicate used by
// Context scope for directions other than siblings. Calendar has none.
func contextPredicate(source datasource.DataSource, metadata map[string]interface{}) (vectorstore.Predicate, bool) {
	switch source {
	case datasource.Slack:
		if v, ok := getString(metadata, "channelId"); ok {
			return vectorstore.Eq("channelId", v), true
		}
		return nil, false
	case datasource.Gmail:
		if v, ok := getString(metadata, "threadId"); ok {
			return vectorstore.Eq("threadId", v), true
		}
		return nil, false
	case datasource.Jira:
		if v, ok := getString(metadata, "project"); ok {
			return vectorstore.Eq("project", v), true
		}
		return nil, false
	case datasource.Drive:
		if v, ok := getString(metadata, "folderPath"); ok {
			return vectorstore.Eq("folderPath", v), true
		}
		if path, ok := getString(metadata, "path"); ok {
			if folder, ok := folderFromPath(path); ok {
				return vectorstore.Eq("folderPath", folder), true
			}
		}
		return nil, false
	case datasource.Confluence:
		if v, ok := getString(metadata, "space"); ok {
			return vectorstore.Eq("space", v), true
		}
		return nil, false
	case datasource.GitHub:
		if v, ok := getString(metadata, "repo"); ok {
			return vectorstore.Eq("repo", v), true
		}
		return nil, false
	default:
		return nil, false
	}
}
