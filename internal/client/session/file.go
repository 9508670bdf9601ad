// file.go — сессия в файле, зашифрованном AES-256-GCM.
// Аналог сессии вкладки браузера: переживает перезапуск CLI до logout или 401.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// filePerm — права файла сессии и файла ключа.
const filePerm = 0o600

// FileStore — MemoryStore с сохранением в зашифрованный файл.
type FileStore struct {
	*MemoryStore
	path   string
	gcm    cipher.AEAD
	logger *slog.Logger
}

// NewFileStore открывает хранилище в path.
// key — 32-байтовый ключ в base64 или произвольная строка (хешируется SHA-256).
// Пустой key — ключ читается из path+".key" или создаётся там.
// Повреждённый файл сессии удаляется, хранилище стартует пустым.
func NewFileStore(path, key string, logger *slog.Logger) (*FileStore, error) {
	logger = logger.With(slog.String("component", "session_store"))

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("создание каталога сессии: %w", err)
	}

	keyBytes, err := resolveKey(path+".key", key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	fsStore := &FileStore{
		MemoryStore: NewMemoryStore(),
		path:        path,
		gcm:         gcm,
		logger:      logger,
	}

	s, err := fsStore.load()
	switch {
	case err != nil:
		logger.Warn("Файл сессии повреждён, сессия сброшена",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		_ = os.Remove(path)
	case s != nil:
		fsStore.MemoryStore.current = s
	}

	return fsStore, nil
}

// resolveKey вычисляет ключ AES-256.
func resolveKey(keyPath, key string) ([]byte, error) {
	if key != "" {
		keyBytes, err := base64.StdEncoding.DecodeString(key)
		if err != nil || len(keyBytes) != 32 {
			return sha256Key(key), nil
		}
		return keyBytes, nil
	}

	data, err := os.ReadFile(keyPath)
	if err == nil {
		keyBytes, decErr := base64.StdEncoding.DecodeString(string(data))
		if decErr == nil && len(keyBytes) == 32 {
			return keyBytes, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("чтение ключа сессии: %w", err)
	}

	keyBytes := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
		return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(base64.StdEncoding.EncodeToString(keyBytes)), filePerm); err != nil {
		return nil, fmt.Errorf("запись ключа сессии: %w", err)
	}
	return keyBytes, nil
}

// Set сохраняет сессию в файл и в память.
func (f *FileStore) Set(s Session) error {
	encrypted, err := f.encrypt(&s)
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(encrypted), filePerm); err != nil {
		return fmt.Errorf("запись сессии: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("запись сессии: %w", err)
	}

	return f.MemoryStore.Set(s)
}

// Clear удаляет файл сессии и сессию в памяти.
func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		f.logger.Error("Не удалось удалить файл сессии",
			slog.String("path", f.path),
			slog.String("error", err.Error()),
		)
	}
	_ = f.MemoryStore.Clear()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("удаление сессии: %w", err)
	}
	return nil
}

// load читает сессию из файла. Отсутствие файла — nil, nil.
func (f *FileStore) load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return f.decrypt(string(data))
}

// encrypt шифрует сессию: nonce || ciphertext, base64 URL-encoding.
func (f *FileStore) encrypt(s *Session) (string, error) {
	plaintext, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	nonce := make([]byte, f.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	return base64.URLEncoding.EncodeToString(f.gcm.Seal(nonce, nonce, plaintext, nil)), nil
}

// decrypt — обратная к encrypt операция.
func (f *FileStore) decrypt(encrypted string) (*Session, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := f.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := f.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var s Session
	if err := json.Unmarshal(plaintext, &s); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	if s.Token == "" {
		return nil, errors.New("в сессии нет токена")
	}
	return &s, nil
}

// sha256Key хеширует строковый ключ в 32 bytes через SHA-256.
func sha256Key(key string) []byte {
	h := sha256.Sum256([]byte(key))
	return h[:]
}
