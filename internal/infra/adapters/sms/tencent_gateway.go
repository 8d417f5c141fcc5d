package sms

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lingotube-backend/internal/config"
	"lingotube-backend/internal/domain"
	"lingotube-backend/internal/domain/ports/adapter"
)

var _ adapter.SMSGateway = (*TencentGateway)(nil)

const (
	smsHost    = "sms.tencentcloudapi.com"
	smsService = "sms"
	smsVersion = "2021-01-11"
	smsAction  = "SendSms"
)

// TencentGateway dispatches OTP codes through the Tencent Cloud SMS API
// using the TC3-HMAC-SHA256 request signature.
type TencentGateway struct {
	cfg    config.SMSConfig
	client *http.Client
}

func NewTencentGateway(cfg config.SMSConfig) (*TencentGateway, error) {
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: sms secret credentials", domain.ErrMisconfigured)
	}
	if cfg.SDKAppID == "" || cfg.SignName == "" || cfg.TemplateID == "" {
		return nil, fmt.Errorf("%w: sms app id, sign name or template id", domain.ErrMisconfigured)
	}
	return &TencentGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *TencentGateway) Name() string { return "tencent" }

// Send submits the code for delivery. Any transport or API-level error is
// wrapped as a dispatch failure; the caller decides what survives it.
func (g *TencentGateway) Send(ctx context.Context, phone, code string) error {
	body, err := json.Marshal(map[string]interface{}{
		"SmsSdkAppId":      g.cfg.SDKAppID,
		"SignName":         g.cfg.SignName,
		"TemplateId":       g.cfg.TemplateID,
		"PhoneNumberSet":   []string{phone},
		"TemplateParamSet": []string{code},
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://"+smsHost, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Host", smsHost)
	req.Header.Set("X-TC-Action", smsAction)
	req.Header.Set("X-TC-Version", smsVersion)
	req.Header.Set("X-TC-Region", g.cfg.Region)
	req.Header.Set("X-TC-Timestamp", strconv.FormatInt(now.Unix(), 10))
	req.Header.Set("Authorization", g.authorization(body, now))

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSMSDispatch, err)
	}
	defer resp.Body.Close()

	var out struct {
		Response struct {
			Error *struct {
				Code    string `json:"Code"`
				Message string `json:"Message"`
			} `json:"Error"`
			SendStatusSet []struct {
				Code string `json:"Code"`
			} `json:"SendStatusSet"`
		} `json:"Response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("%w: decode response", domain.ErrSMSDispatch)
	}
	if out.Response.Error != nil {
		return fmt.Errorf("%w: %s", domain.ErrSMSDispatch, out.Response.Error.Code)
	}
	for _, st := range out.Response.SendStatusSet {
		if st.Code != "Ok" {
			return fmt.Errorf("%w: %s", domain.ErrSMSDispatch, st.Code)
		}
	}
	if len(out.Response.SendStatusSet) == 0 {
		return errors.New("sms: empty send status set")
	}
	return nil
}

// authorization builds the TC3-HMAC-SHA256 header: a canonical request digest
// chained through date/service/request HMAC derivations.
func (g *TencentGateway) authorization(body []byte, now time.Time) string {
	date := now.Format("2006-01-02")

	canonicalHeaders := "content-type:application/json\nhost:" + smsHost + "\n"
	signedHeaders := "content-type;host"
	canonicalRequest := "POST\n/\n\n" + canonicalHeaders + "\n" + signedHeaders + "\n" + sha256Hex(body)

	credentialScope := date + "/" + smsService + "/tc3_request"
	stringToSign := "TC3-HMAC-SHA256\n" +
		strconv.FormatInt(now.Unix(), 10) + "\n" +
		credentialScope + "\n" +
		sha256Hex([]byte(canonicalRequest))

	secretDate := hmacSHA256([]byte("TC3"+g.cfg.SecretKey), date)
	secretService := hmacSHA256(secretDate, smsService)
	secretSigning := hmacSHA256(secretService, "tc3_request")
	signature := hex.EncodeToString(hmacSHA256(secretSigning, stringToSign))

	return "TC3-HMAC-SHA256 Credential=" + g.cfg.SecretID + "/" + credentialScope +
		", SignedHeaders=" + signedHeaders + ", Signature=" + signature
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, msg string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}
