package domain

import (
	"fmt"
	"strings"
)

type InternetMode string

const (
	InternetOfflineOnly InternetMode = "offline_only"
	InternetHybridAsk   InternetMode = "hybrid_ask"
	InternetOnline      InternetMode = "online"
)

func (m InternetMode) Valid() bool {
	switch m {
	case InternetOfflineOnly, InternetHybridAsk, InternetOnline:
		return true
	default:
		return false
	}
}

func ParseInternetMode(raw string) (InternetMode, error) {
	mode := InternetMode(strings.TrimSpace(strings.ToLower(raw)))
	if !mode.Valid() {
		return "", fmt.Errorf("%w %q", ErrInvalidInternetMode, raw)
	}
	return mode, nil
}

type WindowBounds struct {
	Width  int
	Height int
}

type Settings struct {
	ModelPath           string
	VaultPath           string
	InternetMode        InternetMode
	OnboardingCompleted bool
	WindowBounds        WindowBounds
}

func DefaultSettings() Settings {
	return Settings{
		InternetMode: InternetHybridAsk,
		WindowBounds: WindowBounds{Width: 1000, Height: 700},
	}
}

type InternetDecision struct {
	Granted bool
	Reason  string
}
