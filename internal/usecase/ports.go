package usecase

import (
	"context"
	"errors"

	"github.com/fadilmartias/assessment-proctor/internal/assessment"
	"github.com/fadilmartias/assessment-proctor/internal/model"
	"github.com/fadilmartias/assessment-proctor/internal/service"
)

var (
	ErrSubmissionNotSaved = errors.New("submission could not be saved, please try again")
	ErrInvalidPasscode    = errors.New("invalid recruiter passcode")
	ErrInvalidSetting     = errors.New("invalid setting")
	ErrUnknownProvider    = errors.New("unknown AI provider")
	ErrInvalidInvitation  = errors.New("invitation requires name, phone and a known role")
)

type SubmissionStore interface {
	Create(ctx context.Context, s *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	List(ctx context.Context, page, pageSize int) ([]model.Submission, int64, error)
	Delete(ctx context.Context, id string) error
}

// TokenLedger is the durable record of redeemed invitations.
type TokenLedger interface {
	IsRedeemed(ctx context.Context, tokenID string) (bool, error)
	Redeem(ctx context.Context, tokenID string) (inserted bool, err error)
}

// RedemptionGuard is an optional fast claim in front of the ledger.
type RedemptionGuard interface {
	Claim(ctx context.Context, tokenID string) (bool, error)
	IsClaimed(ctx context.Context, tokenID string) (bool, error)
	Release(ctx context.Context, tokenID string) error
}

type SettingStore interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

type Conversation interface {
	Converse(ctx context.Context, history []assessment.Message, latest, instructions string) (service.ConverseResult, error)
}

type ReportSynthesizer interface {
	SynthesizeReport(ctx context.Context, in service.ReportInput) service.FinalReport
}
