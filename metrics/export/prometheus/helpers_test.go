package prometheus

import (
	"context"

	"github.com/MrEthical07/staffguard"
)

type noAccounts struct{}

func (noAccounts) GetAccountByIdentifier(context.Context, string) (staffguard.AccountRecord, error) {
	return staffguard.AccountRecord{}, staffguard.ErrAccountNotFound
}
