package assessments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Vendor client errors for invite dispatch.
var (
	// ErrInviteNotFound signals the vendor does not know the assessment.
	ErrInviteNotFound = errors.New("assessment not found at vendor")

	// ErrInviteForbidden signals the vendor refused the invite, typically
	// because the candidate was already invited.
	ErrInviteForbidden = errors.New("invite forbidden by vendor")
)

// VendorError is a non-2xx vendor response outside the handled cases. The
// webhook handler propagates Status to its own caller.
type VendorError struct {
	Status int
	Body   string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("vendor http error status=%d: %s", e.Status, e.Body)
}

// HTTPStatus returns the status to surface for a vendor failure, falling
// back to 502 when the vendor error carries no usable status.
func HTTPStatus(err error) int {
	var vErr *VendorError
	if errors.As(err, &vErr) && vErr.Status >= 400 {
		return vErr.Status
	}
	return http.StatusBadGateway
}

// VendorClient talks to the assessment vendor HTTP API.
type VendorClient struct {
	baseURL string
	http    *http.Client
}

// NewVendorClient builds a client with bearer auth via a static token source.
func NewVendorClient(ctx context.Context, baseURL, token string) (*VendorClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("vendor base url is required")
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	if strings.TrimSpace(token) != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(token)})
		httpClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, httpClient), src)
	}

	return &VendorClient{baseURL: baseURL, http: httpClient}, nil
}

// AssessmentDescription fetches the description (job title) of an assessment.
func (v *VendorClient) AssessmentDescription(ctx context.Context, assessmentID string) (string, error) {
	url := fmt.Sprintf("%s/assessment/%s", v.baseURL, assessmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := v.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("vendor get assessment: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("vendor get assessment: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &VendorError{Status: resp.StatusCode, Body: truncateBody(body)}
	}

	var parsed struct {
		AssessmentDescription string `json:"assessmentDescription"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("vendor get assessment: decode: %w", err)
	}
	return parsed.AssessmentDescription, nil
}

// Invite is one candidate to invite to an assessment.
type Invite struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// SendInvite invites a candidate to one assessment.
func (v *VendorClient) SendInvite(ctx context.Context, assessmentID string, invite Invite) error {
	payload, err := json.Marshal(map[string]any{
		"candidateInvites": []Invite{invite},
		"assessmentId":     assessmentID,
	})
	if err != nil {
		return err
	}

	url := v.baseURL + "/candidate-invite"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.http.Do(req)
	if err != nil {
		return fmt.Errorf("vendor send invite: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: assessment %s", ErrInviteNotFound, assessmentID)
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: assessment %s", ErrInviteForbidden, assessmentID)
	default:
		return &VendorError{Status: resp.StatusCode, Body: truncateBody(body)}
	}
}

func truncateBody(body []byte) string {
	const limit = 500
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
