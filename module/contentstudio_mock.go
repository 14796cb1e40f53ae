package module

import (
	"encoding/json"
	"path"
	"time"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/router"
)

// mockResponse returns canned data shaped like the live API for the route.
func mockResponse(key router.Key, desc *router.RequestDescriptor) any {
	now := time.Now().UTC().Format(router.ScheduleLayout)
	switch key {
	case router.Key{Resource: router.ResourceAuth, Operation: router.OpValidateKey}:
		return map[string]any{"data": map[string]any{"_id": "user-mock", "email": "mock@contentstudio.test", "name": "Mock User"}}
	case router.Key{Resource: router.ResourceWorkspace, Operation: router.OpList}:
		return listEnvelope(map[string]any{"_id": "ws-mock", "name": "Mock Workspace"})
	case router.Key{Resource: router.ResourceSocialAccount, Operation: router.OpList}:
		return listEnvelope(
			map[string]any{"_id": "acc-fb", "platform": "facebook", "account_name": "Mock Page"},
			map[string]any{"_id": "acc-ig", "platform": "instagram", "username": "mock.ig"},
		)
	case router.Key{Resource: router.ResourceContentCategory, Operation: router.OpList}:
		return listEnvelope(map[string]any{"_id": "cat-mock", "name": "Evergreen"})
	case router.Key{Resource: router.ResourceTeamMember, Operation: router.OpList}:
		return listEnvelope(map[string]any{"_id": "member-mock", "name": "Mock Member", "role": "admin"})
	case router.Key{Resource: router.ResourcePost, Operation: router.OpList}:
		return listEnvelope(map[string]any{"_id": "post-mock", "content": map[string]any{"text": "Mock post"}, "status": "scheduled"})
	case router.Key{Resource: router.ResourcePost, Operation: router.OpCreate}:
		post := map[string]any{"_id": "post-mock", "status": "scheduled", "created_at": now}
		if body, err := json.Marshal(desc.Body); err == nil {
			var echoed map[string]any
			if json.Unmarshal(body, &echoed) == nil {
				for k, v := range echoed {
					post[k] = v
				}
			}
		}
		return map[string]any{"status": true, "data": post}
	case router.Key{Resource: router.ResourcePost, Operation: router.OpDelete}:
		return map[string]any{"status": true, "message": "Post deleted", "data": map[string]any{"_id": path.Base(desc.URL)}}
	case router.Key{Resource: router.ResourcePost, Operation: router.OpApprove}:
		action := ""
		if a, ok := desc.Body.(*router.ApprovalAction); ok {
			action = a.Action
		}
		return map[string]any{"status": true, "data": map[string]any{"action": action, "updated_at": now}}
	}
	return map[string]any{"status": true}
}

func listEnvelope(items ...any) map[string]any {
	return map[string]any{
		"data":       items,
		"pagination": map[string]any{"page": 1, "per_page": len(items), "total": len(items)},
	}
}
