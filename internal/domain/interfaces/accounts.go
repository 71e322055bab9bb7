package interfaces

import domaintypes "scred/internal/domain/types"

// AccountStore persists per-directory account profiles.
type AccountStore interface {
	SaveAccountProfile(profile domaintypes.AccountProfile) error
	LoadAccountProfile(serverURL string) (domaintypes.AccountProfile, bool, error)
	DeleteAccountProfile(serverURL string) error
}
