package router

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/GoCodeAlone/workflow-plugin-contentstudio/params"
)

// ScheduleLayout is the time format the API expects for scheduled_at.
const ScheduleLayout = "2006-01-02 15:04:05"

// DefaultScheduleLead is added to the current time when a post is not
// explicitly scheduled.
const DefaultScheduleLead = 90 * time.Minute

const (
	PublishScheduled     = "scheduled"
	DefaultApproveOption = "anyone"
)

// Only the shape is checked; calendar correctness is left to the API.
var scheduledAtPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

var validate = validator.New(validator.WithRequiredStructEnabled())

// PostCreationPayload is the body of POST /v1/workspaces/{ws}/posts.
type PostCreationPayload struct {
	Content           PostContent   `json:"content"`
	Accounts          []string      `json:"accounts"`
	PostType          string        `json:"post_type,omitempty"`
	Scheduling        Scheduling    `json:"scheduling"`
	ContentCategoryID string        `json:"content_category_id,omitempty"`
	FirstComment      *FirstComment `json:"first_comment,omitempty"`
	Approval          *Approval     `json:"approval,omitempty"`
}

type PostContent struct {
	Text  string    `json:"text"`
	Media PostMedia `json:"media"`
}

type PostMedia struct {
	Images []string `json:"images"`
	Video  string   `json:"video,omitempty"`
}

type Scheduling struct {
	PublishType string `json:"publish_type" validate:"required"`
	ScheduledAt string `json:"scheduled_at,omitempty"`
}

type FirstComment struct {
	Message  string   `json:"message" validate:"required"`
	Accounts []string `json:"accounts" validate:"min=1,dive,required"`
}

type Approval struct {
	Approvers     []string `json:"approvers" validate:"min=1,dive,required"`
	ApproveOption string   `json:"approve_option" validate:"oneof=anyone everyone"`
	Notes         string   `json:"notes,omitempty"`
}

// ApprovalAction is the body of POST /v1/workspaces/{ws}/plans/{planId}/approval.
type ApprovalAction struct {
	Action  string `json:"action" validate:"oneof=approve reject"`
	Comment string `json:"comment,omitempty"`
}

// BuildPostPayload validates the post.create parameters and assembles the
// request body. now is the reference time for the default schedule.
func BuildPostPayload(p params.Set, now time.Time) (*PostCreationPayload, error) {
	text := p.String("contentText")
	images := params.ParseMediaImages(p.Value("mediaImages"))
	video := strings.TrimSpace(params.ParseMediaVideo(p.Value("mediaVideo")))
	if strings.TrimSpace(text) == "" && len(images) == 0 && video == "" {
		return nil, invalid("content", "At least one of the following must be provided: Content Text, Media Images, or Media Video")
	}

	scheduledAt := p.Trimmed("scheduledAt")
	if scheduledAt != "" && !scheduledAtPattern.MatchString(scheduledAt) {
		return nil, invalid("scheduledAt", "Scheduled At must be in format: YYYY-MM-DD HH:MM:SS (e.g., 2025-10-11 11:15:00)")
	}
	publishType := p.Trimmed("publishType")
	if publishType == "" {
		publishType = PublishScheduled
	}
	if publishType != PublishScheduled {
		scheduledAt = now.Add(DefaultScheduleLead).Format(ScheduleLayout)
	}

	accounts := p.Accounts("accounts")
	categoryID := params.TrimQuotes(p.String("contentCategoryId"))
	if len(accounts) == 0 && categoryID == "" {
		return nil, invalid("accounts", "At least one Account must be selected when no Content Category is chosen")
	}

	if images == nil {
		images = []string{}
	}
	payload := &PostCreationPayload{
		Content: PostContent{
			Text:  text,
			Media: PostMedia{Images: images, Video: video},
		},
		Accounts:          accounts,
		PostType:          p.Trimmed("postType"),
		Scheduling:        Scheduling{PublishType: publishType, ScheduledAt: scheduledAt},
		ContentCategoryID: categoryID,
	}

	if p.Bool("addFirstComment") {
		fc, err := buildFirstComment(p, accounts)
		if err != nil {
			return nil, err
		}
		payload.FirstComment = fc
	}
	if p.Bool("requestApproval") {
		ap, err := buildApproval(p)
		if err != nil {
			return nil, err
		}
		payload.Approval = ap
	}

	if err := checkStruct(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func buildFirstComment(p params.Set, mainAccounts []string) (*FirstComment, error) {
	msg := p.Trimmed("firstCommentMessage")
	if msg == "" {
		return nil, invalid("firstCommentMessage", "First Comment message is required when First Comment is enabled")
	}
	commentAccounts := p.Accounts("firstCommentAccounts")
	if len(mainAccounts) > 0 {
		selected := make(map[string]struct{}, len(mainAccounts))
		for _, a := range mainAccounts {
			selected[a] = struct{}{}
		}
		narrowed := make([]string, 0, len(commentAccounts))
		for _, a := range commentAccounts {
			if _, ok := selected[a]; ok {
				narrowed = append(narrowed, a)
			}
		}
		commentAccounts = narrowed
		if len(commentAccounts) == 0 {
			return nil, invalid("firstCommentAccounts", "First Comment Accounts must include at least one account from the selected main Accounts")
		}
	}
	if len(commentAccounts) == 0 {
		return nil, invalid("firstCommentAccounts", "At least one First Comment Account is required when First Comment is enabled")
	}
	return &FirstComment{Message: msg, Accounts: commentAccounts}, nil
}

func buildApproval(p params.Set) (*Approval, error) {
	approvers := make([]string, 0)
	for _, id := range p.Strings("approvers") {
		if v := params.TrimQuotes(id); v != "" {
			approvers = append(approvers, v)
		}
	}
	approvers = params.Dedupe(approvers)
	if len(approvers) == 0 {
		return nil, invalid("approvers", "At least one approver ID is required when approval is requested")
	}
	option := strings.ToLower(p.Trimmed("approveOption"))
	if option == "" {
		option = DefaultApproveOption
	}
	return &Approval{
		Approvers:     approvers,
		ApproveOption: option,
		Notes:         p.Trimmed("approvalNotes"),
	}, nil
}

func createPost(in Input) (*RequestDescriptor, error) {
	ws, err := requireWorkspace(in.Params)
	if err != nil {
		return nil, err
	}
	payload, err := BuildPostPayload(in.Params, in.Now)
	if err != nil {
		return nil, err
	}
	req := newRequest(http.MethodPost, in.Credential, "/v1/workspaces/%s/posts", ws)
	return req.withJSONBody(payload), nil
}

func approvePost(in Input) (*RequestDescriptor, error) {
	ws, err := requireWorkspace(in.Params)
	if err != nil {
		return nil, err
	}
	planID := params.TrimQuotes(in.Params.String("planId"))
	if planID == "" {
		return nil, invalid("planId", "Plan ID is required")
	}
	action := strings.ToLower(in.Params.Trimmed("action"))
	if action == "" {
		action = "approve"
	}
	body := &ApprovalAction{Action: action, Comment: in.Params.Trimmed("comment")}
	if err := checkStruct(body); err != nil {
		return nil, err
	}
	req := newRequest(http.MethodPost, in.Credential, "/v1/workspaces/%s/plans/%s/approval", ws, planID)
	return req.withJSONBody(body), nil
}

// checkStruct runs the struct tags and reports the first failure as a
// ValidationError.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("router: validating request body: %w", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "oneof":
		return invalid(fe.Field(), "%s must be one of: %s (got %q)", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "required", "min":
		return invalid(fe.Field(), "%s is required", fe.Field())
	}
	return invalid(fe.Field(), "%s is invalid", fe.Field())
}
