package vod

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"lingotube-backend/internal/config"
	"lingotube-backend/internal/domain"
)

// Content format modes accepted by the video platform.
const (
	AudioVideoTypeOriginal    = "Original"
	AudioVideoTypeRawAdaptive = "RawAdaptive"
	AudioVideoTypeTranscode   = "Transcode"
)

// header is fixed for every ticket; field order is the wire order.
type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// contentInfo describes which renditions the ticket unlocks. Definition
// values are either a single int/string or a homogeneous list of them,
// depending on the configured comma-separated definition string.
type contentInfo struct {
	AudioVideoType        string      `json:"audioVideoType"`
	RawAdaptiveDefinition interface{} `json:"rawAdaptiveDefinition,omitempty"`
	TranscodeDefinition   interface{} `json:"transcodeDefinition,omitempty"`
}

// payload is the signed claim set. Struct field order keeps the JSON
// encoding stable, so re-encoding always reproduces the signed bytes.
type payload struct {
	AppID            int64       `json:"appId"`
	FileID           string      `json:"fileId"`
	ContentInfo      contentInfo `json:"contentInfo"`
	CurrentTimeStamp int64       `json:"currentTimeStamp"`
	ExpireTimeStamp  int64       `json:"expireTimeStamp"`
}

// PSign is the issued playback authorization handed to the video platform.
type PSign struct {
	PSign      string `json:"psign"`
	FileID     string `json:"file_id"`
	AppID      int64  `json:"app_id"`
	ExpireTime int64  `json:"expire_time"`
}

// Signer builds signed, time-boxed playback tickets. Entirely stateless:
// signing is HMAC-SHA256 over the base64url header.payload pair.
type Signer struct {
	cfg config.VODConfig
}

func NewSigner(cfg config.VODConfig) *Signer {
	return &Signer{cfg: cfg}
}

// Generate issues a ticket for the file. now is injectable for tests; pass
// the zero value to use wall-clock time.
func (s *Signer) Generate(fileID string, now time.Time) (*PSign, error) {
	if s.cfg.AppID == 0 || s.cfg.PlayKey == "" {
		return nil, domain.ErrMisconfigured
	}
	if fileID == "" {
		return nil, domain.ErrMissingFileID
	}

	if now.IsZero() {
		now = time.Now()
	}
	currentTS := now.Unix()
	expireTS := currentTS + s.cfg.PSignExpireSeconds

	p := payload{
		AppID:            s.cfg.AppID,
		FileID:           fileID,
		ContentInfo:      s.contentInfo(),
		CurrentTimeStamp: currentTS,
		ExpireTimeStamp:  expireTS,
	}

	headerB64, err := encodeSegment(header{Alg: "HS256", Typ: "JWT"})
	if err != nil {
		return nil, err
	}
	payloadB64, err := encodeSegment(p)
	if err != nil {
		return nil, err
	}
	sig := sign(headerB64+"."+payloadB64, s.cfg.PlayKey)

	return &PSign{
		PSign:      headerB64 + "." + payloadB64 + "." + sig,
		FileID:     fileID,
		AppID:      s.cfg.AppID,
		ExpireTime: expireTS,
	}, nil
}

// Verify checks the ticket's signature against the configured play key.
func (s *Signer) Verify(ticket string) error {
	parts := strings.Split(ticket, ".")
	if len(parts) != 3 {
		return domain.ErrInvalidArgument
	}
	want := sign(parts[0]+"."+parts[1], s.cfg.PlayKey)
	if !hmac.Equal([]byte(want), []byte(parts[2])) {
		return domain.ErrUnauthorized
	}
	return nil
}

// contentInfo carries only the definition matching the configured mode; the
// others stay absent from the payload.
func (s *Signer) contentInfo() contentInfo {
	ci := contentInfo{AudioVideoType: s.cfg.AudioVideoType}
	switch s.cfg.AudioVideoType {
	case AudioVideoTypeRawAdaptive:
		ci.RawAdaptiveDefinition = parseDefinition(s.cfg.RawAdaptiveDefinition)
	case AudioVideoTypeTranscode:
		ci.TranscodeDefinition = parseDefinition(s.cfg.TranscodeDefinition)
	}
	return ci
}

// parseDefinition turns a comma-separated configuration value into a scalar
// or a homogeneous list: all-integer when every element is digits, otherwise
// all-string. Empty input yields nil, which omits the field.
func parseDefinition(value string) interface{} {
	stripped := strings.TrimSpace(value)
	if stripped == "" {
		return nil
	}
	if !strings.Contains(stripped, ",") {
		if n, ok := parseDigits(stripped); ok {
			return n
		}
		return stripped
	}

	var parts []string
	for _, p := range strings.Split(stripped, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	ints := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, ok := parseDigits(p)
		if !ok {
			return parts
		}
		ints = append(ints, n)
	}
	return ints
}

func parseDigits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int64(r-'0')
	}
	return n, true
}

func encodeSegment(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func sign(signingInput, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(signingInput))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
