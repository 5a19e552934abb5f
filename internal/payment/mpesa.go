package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/unistay-housing/service-booking/pkg/config"
	"github.com/unistay-housing/service-booking/pkg/domain"
)

const darajaTimestampLayout = "20060102150405"

var nonNumericRegex = regexp.MustCompile(`[^0-9]`)

// SanitizeMSISDN normalizes a Kenyan phone number to the 2547XXXXXXXX /
// 2541XXXXXXXX form Safaricom expects.
func SanitizeMSISDN(phone string) (string, error) {
	sanitized := nonNumericRegex.ReplaceAllString(phone, "")

	if (strings.HasPrefix(sanitized, "07") || strings.HasPrefix(sanitized, "01")) && len(sanitized) == 10 {
		return "254" + sanitized[1:], nil
	}
	if (strings.HasPrefix(sanitized, "7") || strings.HasPrefix(sanitized, "1")) && len(sanitized) == 9 {
		return "254" + sanitized, nil
	}
	if strings.HasPrefix(sanitized, "254") && len(sanitized) == 12 {
		return sanitized, nil
	}

	return "", errors.New("invalid M-Pesa phone number format")
}

// STKPushRequest is the Daraja STK push payload.
type STKPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is the Daraja STK push acknowledgement.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// MpesaClient talks to the Safaricom Daraja API.
type MpesaClient struct {
	cfg    config.MpesaConfig
	http   *http.Client
	logger *zap.Logger
}

// NewMpesaClient creates a new MpesaClient.
func NewMpesaClient(cfg config.MpesaConfig, logger *zap.Logger) *MpesaClient {
	return &MpesaClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

func (c *MpesaClient) accessToken(ctx context.Context) (string, error) {
	url := c.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tokenResp accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", errors.New("token endpoint returned empty access token")
	}
	return tokenResp.AccessToken, nil
}

// darajaPassword is base64(shortcode + passkey + timestamp).
func darajaPassword(shortCode, passKey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
}

// InitiateSTKPush asks Safaricom to prompt the phone for the given amount.
// The account reference ties the eventual C2B notification back to a booking.
func (c *MpesaClient) InitiateSTKPush(ctx context.Context, msisdn string, amount decimal.Decimal, accountRef, description string) (*STKPushResponse, error) {
	phone, err := SanitizeMSISDN(msisdn)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, domain.NewPaymentError(fmt.Sprintf("failed to authenticate with M-Pesa: %v", err))
	}

	// The prefix identifies the marketplace on the payer's statement line.
	if c.cfg.AccountPrefix != "" {
		description = c.cfg.AccountPrefix + " " + description
	}

	timestamp := time.Now().Format(darajaTimestampLayout)
	payload := STKPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          darajaPassword(c.cfg.ShortCode, c.cfg.PassKey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount.Round(0).String(),
		PartyA:            phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal STK payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create STK request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewPaymentError(fmt.Sprintf("failed to reach M-Pesa: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read STK response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("stk push rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return nil, domain.NewPaymentError(fmt.Sprintf("M-Pesa returned status %d", resp.StatusCode))
	}

	var stkResp STKPushResponse
	if err := json.Unmarshal(respBody, &stkResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal STK response: %w", err)
	}

	if stkResp.ResponseCode != "0" {
		return nil, domain.NewPaymentError(fmt.Sprintf("STK push failed: %s", stkResp.ResponseDescription))
	}

	c.logger.Info("stk push initiated",
		zap.String("account_ref", accountRef),
		zap.String("checkout_request_id", stkResp.CheckoutRequestID),
	)
	return &stkResp, nil
}
