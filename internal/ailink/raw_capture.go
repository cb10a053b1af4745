package ailink

import "go.uber.org/zap"

func truncate(input string, max int) string {
	if max <= 0 || len(input) <= max {
		return input
	}
	return input[:max]
}

func (s *Service) captureRaw(slug string, resolved *ResolvedProvider, raw string) {
	cfg := s.Providers.cfg.Debug
	if !cfg.CaptureRawEnabled || s.Logger == nil {
		return
	}
	s.Logger.Debug("Provider response",
		zap.String("prompt", slug),
		zap.String("provider", resolved.ProviderID),
		zap.String("model", resolved.Model),
		zap.Int("bytes", len(raw)),
		zap.String("raw", oneLine(truncate(raw, cfg.CaptureRawMaxBytes))))
}
