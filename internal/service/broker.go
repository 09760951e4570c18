package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pquerna/otp/totp"
	"golang.org/x/time/rate"

	"tradex-go/internal/config"
)

const (
	sessionLifetime = 12 * time.Hour

	loginPath      = "/rest/auth/angelbroking/user/v1/loginByPassword"
	placeOrderPath = "/rest/secure/angelbroking/order/v1/placeOrder"
	holdingsPath   = "/rest/secure/angelbroking/portfolio/v1/getAllHolding"
	scripMasterURL = "https://margincalculator.angelone.in/OpenAPI_File/files/OpenAPIScripMaster.json"
)

// Holding is one row of the broker's holdings report
type Holding struct {
	Symbol    string
	Quantity  int
	AvgPrice  float64
	LastPrice float64
}

// BrokerService talks to the Angel One SmartAPI. All requests share one
// rate limiter so bursts of per-symbol activity cannot trip the API's
// request quota.
type BrokerService struct {
	baseURL    string
	apiKey     string
	clientCode string
	mpin       string
	totpSecret string
	paper      bool

	client  *http.Client
	limiter *rate.Limiter

	jwtToken string
	loginAt  time.Time

	// symbol -> exchange token, from the scrip master download
	symbolTokens map[string]string

	paperSeq atomic.Int64
}

func NewBrokerService() *BrokerService {
	cfg := config.AppConfig
	return &BrokerService{
		baseURL:      cfg.BrokerBaseURL,
		apiKey:       cfg.BrokerAPIKey,
		clientCode:   cfg.BrokerClientCode,
		mpin:         cfg.BrokerMPIN,
		totpSecret:   cfg.BrokerTOTPSecret,
		paper:        cfg.PaperTrading,
		client:       &http.Client{Timeout: 15 * time.Second},
		limiter:      rate.NewLimiter(rate.Every(time.Second), 1),
		symbolTokens: defaultSymbolTokens(),
	}
}

// Paper reports whether the client is in paper-trading mode
func (b *BrokerService) Paper() bool { return b.paper }

type apiResponse struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorcode"`
	Data      json.RawMessage `json:"data"`
}

// Login establishes a broker session using MPIN plus a fresh TOTP code
func (b *BrokerService) Login() error {
	if b.paper {
		log.Println("📝 [Broker] Paper trading mode, skipping broker login")
		return nil
	}

	code, err := totp.GenerateCode(b.totpSecret, time.Now())
	if err != nil {
		return fmt.Errorf("generate TOTP: %w", err)
	}

	body := map[string]string{
		"clientcode": b.clientCode,
		"password":   b.mpin,
		"totp":       code,
	}

	resp, err := b.post(loginPath, body, false)
	if err != nil {
		return fmt.Errorf("broker login: %w", err)
	}
	if !resp.Status {
		return fmt.Errorf("broker login rejected: %s (%s)", resp.Message, resp.ErrorCode)
	}

	var data struct {
		JWTToken string `json:"jwtToken"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if data.JWTToken == "" {
		return fmt.Errorf("broker login returned empty token")
	}

	b.jwtToken = data.JWTToken
	b.loginAt = time.Now()
	log.Println("✅ [Broker] Session established")
	return nil
}

// ensureSession re-logs in when the token is past its lifetime
func (b *BrokerService) ensureSession() error {
	if b.paper {
		return nil
	}
	if b.jwtToken == "" || time.Since(b.loginAt) > sessionLifetime {
		log.Println("🔄 [Broker] Session expired, logging in again")
		return b.Login()
	}
	return nil
}

// PlaceMarketOrder submits a market order and returns the broker order id.
// A business rejection (insufficient funds, RMS block, closed market) is
// reported as an empty order id with an explanatory error; callers notify
// and move on rather than retrying.
func (b *BrokerService) PlaceMarketOrder(symbol, side string, quantity int) (string, error) {
	if quantity <= 0 {
		return "", fmt.Errorf("invalid quantity %d for %s", quantity, symbol)
	}

	if b.paper {
		id := fmt.Sprintf("PAPER-%d", b.paperSeq.Add(1))
		log.Printf("📝 [Broker] Paper %s %d x %s -> %s", side, quantity, symbol, id)
		return id, nil
	}

	if err := b.ensureSession(); err != nil {
		return "", err
	}

	token, ok := b.symbolTokens[symbol]
	if !ok {
		return "", fmt.Errorf("no exchange token for symbol %s", symbol)
	}

	body := map[string]interface{}{
		"variety":         "NORMAL",
		"tradingsymbol":   symbol + "-EQ",
		"symboltoken":     token,
		"transactiontype": side,
		"exchange":        "NSE",
		"ordertype":       "MARKET",
		"producttype":     "DELIVERY",
		"duration":        "DAY",
		"quantity":        fmt.Sprintf("%d", quantity),
	}

	resp, err := b.postWithRelogin(placeOrderPath, body)
	if err != nil {
		return "", fmt.Errorf("place order %s %s: %w", side, symbol, err)
	}
	if !resp.Status {
		return "", fmt.Errorf("order rejected for %s: %s (%s)", symbol, resp.Message, resp.ErrorCode)
	}

	var data struct {
		OrderID string `json:"orderid"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}

	log.Printf("✅ [Broker] %s %d x %s placed, order id %s", side, quantity, symbol, data.OrderID)
	return data.OrderID, nil
}

// Holdings fetches the account's current holdings for reconciliation
func (b *BrokerService) Holdings() ([]Holding, error) {
	if b.paper {
		return nil, nil
	}
	if err := b.ensureSession(); err != nil {
		return nil, err
	}

	resp, err := b.postWithRelogin(holdingsPath, map[string]string{})
	if err != nil {
		return nil, fmt.Errorf("fetch holdings: %w", err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("holdings rejected: %s (%s)", resp.Message, resp.ErrorCode)
	}

	var data struct {
		Holdings []struct {
			TradingSymbol string  `json:"tradingsymbol"`
			Quantity      int     `json:"quantity"`
			AveragePrice  float64 `json:"averageprice"`
			LTP           float64 `json:"ltp"`
		} `json:"holdings"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("decode holdings: %w", err)
	}

	holdings := make([]Holding, 0, len(data.Holdings))
	for _, h := range data.Holdings {
		symbol := h.TradingSymbol
		if n := len(symbol); n > 3 && symbol[n-3:] == "-EQ" {
			symbol = symbol[:n-3]
		}
		holdings = append(holdings, Holding{
			Symbol:    symbol,
			Quantity:  h.Quantity,
			AvgPrice:  h.AveragePrice,
			LastPrice: h.LTP,
		})
	}
	return holdings, nil
}

// LoadSymbolTokens refreshes the symbol token map from the scrip master.
// The static fallback map stays in place when the download fails.
func (b *BrokerService) LoadSymbolTokens(symbols []string) {
	if b.paper {
		return
	}

	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s+"-EQ"] = true
	}

	resp, err := b.client.Get(scripMasterURL)
	if err != nil {
		log.Printf("⚠️ [Broker] Scrip master download failed, using static tokens: %v", err)
		return
	}
	defer resp.Body.Close()

	var scrips []struct {
		Token  string `json:"token"`
		Symbol string `json:"symbol"`
		Exch   string `json:"exch_seg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&scrips); err != nil {
		log.Printf("⚠️ [Broker] Scrip master decode failed, using static tokens: %v", err)
		return
	}

	count := 0
	for _, s := range scrips {
		if s.Exch == "NSE" && wanted[s.Symbol] {
			b.symbolTokens[s.Symbol[:len(s.Symbol)-3]] = s.Token
			count++
		}
	}
	log.Printf("✅ [Broker] Loaded %d symbol tokens from scrip master", count)
}

// postWithRelogin performs an authenticated POST, retrying exactly once
// after a fresh login when the session token has been invalidated.
func (b *BrokerService) postWithRelogin(path string, body interface{}) (*apiResponse, error) {
	resp, err := b.post(path, body, true)
	if err != nil {
		return nil, err
	}
	if !resp.Status && isAuthError(resp.ErrorCode) {
		log.Printf("🔄 [Broker] Auth error %s, re-login and retry", resp.ErrorCode)
		if err := b.Login(); err != nil {
			return nil, err
		}
		return b.post(path, body, true)
	}
	return resp, nil
}

func (b *BrokerService) post(path string, body interface{}, authed bool) (*apiResponse, error) {
	if err := b.limiter.Wait(context.Background()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")
	req.Header.Set("X-PrivateKey", b.apiKey)
	if authed {
		req.Header.Set("Authorization", "Bearer "+b.jwtToken)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("broker request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read broker response: %w", err)
	}

	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode broker response (%s): %w", resp.Status, err)
	}
	return &out, nil
}

func isAuthError(code string) bool {
	switch code {
	case "AG8001", "AG8002", "AB8050", "AB8051":
		return true
	}
	return false
}

// defaultSymbolTokens covers the default universe when the scrip master
// cannot be fetched
func defaultSymbolTokens() map[string]string {
	return map[string]string{
		"NIFTYBEES":  "10576",
		"BANKBEES":   "11439",
		"GOLDBEES":   "14428",
		"SILVERBEES": "8080",
	}
}
