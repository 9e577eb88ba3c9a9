package config

const (
	defaultUploadDir       = "~/.local/share/melodex/uploads"
	defaultLogDir          = "~/.local/share/melodex/logs"
	defaultSongsDB         = "~/.local/share/melodex/db/songs.db"
	defaultUsersDB         = "~/.local/share/melodex/db/users.db"
	defaultAPIBind         = "127.0.0.1:7800"
	defaultPythonBin       = "python3"
	defaultRecognizeScript = "~/.local/share/melodex/engine/inference/recognize.py"
	defaultIndexScript     = "~/.local/share/melodex/engine/training/user_adder.py"
	defaultCoreDir         = "~/.local/share/melodex/engine/core"
	defaultEngineTimeout   = 120
	defaultMaxConcurrent   = 4
	defaultTopMatches      = 3
	defaultMaxUploadMiB    = 50
	defaultTokenTTLHours   = 24
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			UploadDir: defaultUploadDir,
			LogDir:    defaultLogDir,
			SongsDB:   defaultSongsDB,
			UsersDB:   defaultUsersDB,
			APIBind:   defaultAPIBind,
		},
		Engine: Engine{
			PythonBin:       defaultPythonBin,
			RecognizeScript: defaultRecognizeScript,
			IndexScript:     defaultIndexScript,
			CoreDir:         defaultCoreDir,
			TimeoutSeconds:  defaultEngineTimeout,
			MaxConcurrent:   defaultMaxConcurrent,
			TopMatches:      defaultTopMatches,
		},
		Server: Server{
			MaxUploadMiB: defaultMaxUploadMiB,
		},
		Auth: Auth{
			TokenTTLHours: defaultTokenTTLHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
