package installer

type InstallState struct {
	EnvVars map[string]string
}

func NewInstallState() *InstallState {
	return &InstallState{
		EnvVars: make(map[string]string),
	}
}

func (s *InstallState) provider() string {
	return s.EnvVars["LLM_PROVIDER"]
}

func (s *InstallState) telegram() bool {
	return s.EnvVars[channelKey] == channelTelegram
}
