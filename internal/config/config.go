package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Game selects which title's documents folder is used.
type Game string

const (
	GameETS2 Game = "ets2"
	GameATS  Game = "ats"
)

// FolderName is the game's folder under the user's Documents directory.
func (g Game) FolderName() string {
	if g == GameATS {
		return "American Truck Simulator"
	}
	return "Euro Truck Simulator 2"
}

type Config struct {
	Game          Game
	GameDir       string
	StatePath     string
	JournalPath   string
	DatabaseURL   string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	CacheSize     int
	WorkerCount   int
	Backup        bool
	AtomicWrite   bool
	LogLevel      string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	game := Game(strings.ToLower(getEnv("SAVE_EDIT_GAME", string(GameETS2))))
	if game != GameATS {
		game = GameETS2
	}

	stateDir := defaultStateDir()
	return &Config{
		Game:          game,
		GameDir:       getEnv("SAVE_EDIT_GAME_DIR", DefaultGameDir(game)),
		StatePath:     getEnv("SAVE_EDIT_STATE_DB", filepath.Join(stateDir, "state.db")),
		JournalPath:   getEnv("SAVE_EDIT_JOURNAL_DB", filepath.Join(stateDir, "journal.sqlite")),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", "password"),
		CacheSize:     getEnvInt("CACHE_SIZE", 16),
		WorkerCount:   getEnvInt("WORKER_COUNT", 4),
		Backup:        getEnvBool("BACKUP_ON_WRITE", true),
		AtomicWrite:   getEnvBool("ATOMIC_WRITE", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

// DefaultGameDir is ~/Documents/<game folder>.
func DefaultGameDir(game Game) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("Documents", game.FolderName())
	}
	return filepath.Join(home, "Documents", game.FolderName())
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "save-edit-tool")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
