// Package sms adapts SMS providers to notification.SMSSink.
package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi "github.com/alibabacloud-go/dysmsapi-20170525/v4/client"
	"github.com/alibabacloud-go/tea/tea"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/pkg/logger"
)

// ErrDisabled is returned by Disabled.
var ErrDisabled = errors.New("sms provider not configured")

// AliyunConfig holds the Aliyun SMS credentials and template.
type AliyunConfig struct {
	AccessKeyID     string
	AccessKeySecret string
	RegionID        string
	SignName        string
	TemplateCode    string
}

type smsAPI interface {
	SendSms(request *dysmsapi.SendSmsRequest) (*dysmsapi.SendSmsResponse, error)
}

// Aliyun sends the notification body as the "content" parameter of one
// pre-approved template.
type Aliyun struct {
	api          smsAPI
	signName     string
	templateCode string
}

// NewAliyun creates an Aliyun sink.
func NewAliyun(cfg AliyunConfig) (*Aliyun, error) {
	region := cfg.RegionID
	if region == "" {
		region = "cn-hangzhou"
	}
	client, err := dysmsapi.NewClient(&openapi.Config{
		AccessKeyId:     tea.String(cfg.AccessKeyID),
		AccessKeySecret: tea.String(cfg.AccessKeySecret),
		RegionId:        tea.String(region),
		Endpoint:        tea.String("dysmsapi.aliyuncs.com"),
	})
	if err != nil {
		return nil, fmt.Errorf("create aliyun sms client: %w", err)
	}
	return &Aliyun{api: client, signName: cfg.SignName, templateCode: cfg.TemplateCode}, nil
}

// Send returns the provider BizId on success.
func (a *Aliyun) Send(ctx context.Context, phone, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	param, err := json.Marshal(map[string]string{"content": body})
	if err != nil {
		return "", err
	}

	resp, err := a.api.SendSms(&dysmsapi.SendSmsRequest{
		PhoneNumbers:  tea.String(phone),
		SignName:      tea.String(a.signName),
		TemplateCode:  tea.String(a.templateCode),
		TemplateParam: tea.String(string(param)),
	})
	if err != nil {
		return "", fmt.Errorf("aliyun send sms: %w", err)
	}
	if resp == nil || resp.Body == nil {
		return "", errors.New("aliyun send sms: empty response")
	}
	if code := tea.StringValue(resp.Body.Code); code != "OK" {
		return "", fmt.Errorf("aliyun send sms: %s: %s", code, tea.StringValue(resp.Body.Message))
	}

	bizID := tea.StringValue(resp.Body.BizId)
	logger.Debug("sms accepted by aliyun",
		zap.String("biz_id", bizID),
		zap.String("request_id", tea.StringValue(resp.Body.RequestId)),
	)
	return bizID, nil
}

// Disabled is the sink used when no provider is configured.
type Disabled struct{}

func (Disabled) Send(context.Context, string, string) (string, error) { return "", ErrDisabled }
