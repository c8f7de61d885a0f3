package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/rollview/internal/model"
)

// FilterByProject returns sessions whose working directory contains project,
// ignoring case. An empty filter returns sessions unchanged.
func FilterByProject(sessions []model.SessionSummary, project string) []model.SessionSummary {
	if project == "" {
		return sessions
	}
	var result []model.SessionSummary
	for _, s := range sessions {
		if containsIgnoreCase(s.CWD, project) {
			result = append(result, s)
		}
	}
	return result
}

// HideTrivial drops sessions that never reached a conversation.
func HideTrivial(sessions []model.SessionSummary) []model.SessionSummary {
	var result []model.SessionSummary
	for _, s := range sessions {
		if !s.Trivial() {
			result = append(result, s)
		}
	}
	return result
}

// Search returns sessions whose id, cwd or preview contains query.
func Search(sessions []model.SessionSummary, query string) []model.SessionSummary {
	if query == "" {
		return sessions
	}
	var result []model.SessionSummary
	for _, s := range sessions {
		if containsIgnoreCase(s.SessionID, query) ||
			containsIgnoreCase(s.CWD, query) ||
			containsIgnoreCase(s.Preview, query) {
			result = append(result, s)
		}
	}
	return result
}

// Projects groups sessions by working directory, most recently active first.
// Sessions without a cwd are grouped under the empty string.
func Projects(sessions []model.SessionSummary) []model.ProjectStats {
	projMap := make(map[string]*model.ProjectStats)

	for _, s := range sessions {
		ps, ok := projMap[s.CWD]
		if !ok {
			ps = &model.ProjectStats{CWD: s.CWD}
			projMap[s.CWD] = ps
		}
		ps.Sessions++
		if last := lastActivity(s); last.After(ps.LastActivity) {
			ps.LastActivity = last
		}
	}

	projects := make([]model.ProjectStats, 0, len(projMap))
	for _, ps := range projMap {
		projects = append(projects, *ps)
	}
	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].LastActivity.Equal(projects[j].LastActivity) {
			return projects[i].LastActivity.After(projects[j].LastActivity)
		}
		return projects[i].CWD < projects[j].CWD
	})

	return projects
}

func lastActivity(s model.SessionSummary) time.Time {
	if s.ModTime.After(s.StartedAt) {
		return s.ModTime
	}
	return s.StartedAt
}

func countProjects(sessions []model.SessionSummary) int {
	seen := make(map[string]struct{})
	for _, s := range sessions {
		if s.CWD != "" {
			seen[s.CWD] = struct{}{}
		}
	}
	return len(seen)
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
