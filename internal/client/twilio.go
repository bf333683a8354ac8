package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// TwilioOptions settings for NewTwilioClient
type TwilioOptions struct {
	BaseURL       string
	LookupBaseURL string
	AccountSID    string
	AuthToken     string
	Timeout       time.Duration
}

// CallRequest parameters of POST /Accounts/{sid}/Calls.json
type CallRequest struct {
	To                   string
	From                 string
	URL                  string
	Method               string
	StatusCallback       string
	StatusCallbackMethod string
	StatusCallbackEvents []string
	Timeout              int
	Record               bool
}

// Call subset of the Twilio call resource
type Call struct {
	SID       string `json:"sid"`
	Status    string `json:"status"`
	Direction string `json:"direction"`
	To        string `json:"to"`
	From      string `json:"from"`
}

// LookupResult subset of the Lookup v1 phone number resource
type LookupResult struct {
	PhoneNumber    string `json:"phone_number"`
	CountryCode    string `json:"country_code"`
	NationalFormat string `json:"national_format"`
	Carrier        *struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"carrier"`
}

// TwilioError Twilio REST error body
type TwilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func (e *TwilioError) Error() string {
	return fmt.Sprintf("twilio error %d (http %d): %s", e.Code, e.Status, e.Message)
}

// TwilioClient Twilio Voice + Lookup REST client
type TwilioClient struct {
	api        *resty.Client
	lookup     *resty.Client
	accountSID string
	logger     *zap.Logger
}

// NewTwilioClient creates the client. Retries are disabled: a retried
// create-call can ring the same person twice.
func NewTwilioClient(opts TwilioOptions, logger *zap.Logger) *TwilioClient {
	newClient := func(base string) *resty.Client {
		return resty.New().
			SetBaseURL(strings.TrimRight(base, "/")).
			SetTimeout(opts.Timeout).
			SetBasicAuth(opts.AccountSID, opts.AuthToken).
			SetHeader("Accept", "application/json")
	}
	return &TwilioClient{
		api:        newClient(opts.BaseURL),
		lookup:     newClient(opts.LookupBaseURL),
		accountSID: opts.AccountSID,
		logger:     logger,
	}
}

// CreateCall places an outbound call. Provider failures come back as *TwilioError.
func (c *TwilioClient) CreateCall(ctx context.Context, req CallRequest) (*Call, error) {
	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Url", req.URL)
	if req.Method != "" {
		form.Set("Method", req.Method)
	}
	if req.StatusCallback != "" {
		form.Set("StatusCallback", req.StatusCallback)
		form.Set("StatusCallbackMethod", req.StatusCallbackMethod)
		for _, ev := range req.StatusCallbackEvents {
			form.Add("StatusCallbackEvent", ev)
		}
	}
	if req.Timeout > 0 {
		form.Set("Timeout", strconv.Itoa(req.Timeout))
	}
	form.Set("Record", strconv.FormatBool(req.Record))

	var call Call
	var twErr TwilioError
	resp, err := c.api.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		SetResult(&call).
		SetError(&twErr).
		Post("/2010-04-01/Accounts/" + url.PathEscape(c.accountSID) + "/Calls.json")
	if err != nil {
		return nil, fmt.Errorf("failed to call Twilio API: %w", err)
	}
	if resp.IsError() {
		if twErr.Status == 0 {
			twErr.Status = resp.StatusCode()
		}
		return nil, &twErr
	}

	c.logger.Info("Twilio call created",
		zap.String("call_sid", call.SID),
		zap.String("status", call.Status),
	)
	return &call, nil
}

// Lookup fetches carrier information for an E.164 number.
func (c *TwilioClient) Lookup(ctx context.Context, phone string) (*LookupResult, error) {
	var out LookupResult
	var twErr TwilioError
	resp, err := c.lookup.R().
		SetContext(ctx).
		SetQueryParam("Type", "carrier").
		SetResult(&out).
		SetError(&twErr).
		Get("/v1/PhoneNumbers/" + url.PathEscape(phone))
	if err != nil {
		return nil, fmt.Errorf("failed to call Twilio Lookup API: %w", err)
	}
	if resp.IsError() {
		if twErr.Status == 0 {
			twErr.Status = resp.StatusCode()
		}
		return nil, &twErr
	}
	return &out, nil
}
