//go:build darwin && cgo

package darwin

import "github.com/louis030195/bigbrother/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		return &platform.Provider{
			Tree:        NewTree(),
			Inputter:    NewInputter(),
			Focuser:     NewFocuser(),
			Hook:        NewInputHook(),
			Permissions: NewPermissions(),
		}, nil
	}
}
