package automation

import (
	"context"
	"fmt"

	"assurify/pkg/assets"
)

const fallbackLanguage = "en"

// EmailVariant 单一语言的邮件模板
type EmailVariant struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailTemplate 按语言分版本的邮件模板
type EmailTemplate struct {
	ID       string                  `json:"id"`
	Variants map[string]EmailVariant `json:"variants"`
}

// EmailTemplateDoc 邮件模板资产文档
type EmailTemplateDoc struct {
	Templates []EmailTemplate `json:"templates"`
}

// Find 按 id 和语言查找模板，语言缺失时回退到 "en"
func (d *EmailTemplateDoc) Find(id, language string) (EmailVariant, bool) {
	for _, t := range d.Templates {
		if t.ID != id {
			continue
		}
		if v, ok := t.Variants[language]; ok {
			return v, true
		}
		if v, ok := t.Variants[fallbackLanguage]; ok {
			return v, true
		}
	}
	return EmailVariant{}, false
}

// SMSTemplate 按语言分版本的短信模板
type SMSTemplate struct {
	ID       string            `json:"id"`
	Variants map[string]string `json:"variants"`
}

// SMSTemplateDoc 短信模板资产文档
type SMSTemplateDoc struct {
	Templates []SMSTemplate `json:"templates"`
}

// Find 按 id 和语言查找模板，语言缺失时回退到 "en"
func (d *SMSTemplateDoc) Find(id, language string) (string, bool) {
	for _, t := range d.Templates {
		if t.ID != id {
			continue
		}
		if v, ok := t.Variants[language]; ok {
			return v, true
		}
		if v, ok := t.Variants[fallbackLanguage]; ok {
			return v, true
		}
	}
	return "", false
}

// EmailTemplateProvider 邮件模板来源
type EmailTemplateProvider interface {
	Templates(ctx context.Context) (*EmailTemplateDoc, error)
}

// SMSTemplateProvider 短信模板来源
type SMSTemplateProvider interface {
	Templates(ctx context.Context) (*SMSTemplateDoc, error)
}

// StaticEmailTemplates 常驻内存的邮件模板集
type StaticEmailTemplates struct {
	doc EmailTemplateDoc
}

func NewStaticEmailTemplates(doc EmailTemplateDoc) *StaticEmailTemplates {
	return &StaticEmailTemplates{doc: doc}
}

func (p *StaticEmailTemplates) Templates(ctx context.Context) (*EmailTemplateDoc, error) {
	doc := p.doc
	return &doc, nil
}

// StaticSMSTemplates 常驻内存的短信模板集
type StaticSMSTemplates struct {
	doc SMSTemplateDoc
}

func NewStaticSMSTemplates(doc SMSTemplateDoc) *StaticSMSTemplates {
	return &StaticSMSTemplates{doc: doc}
}

func (p *StaticSMSTemplates) Templates(ctx context.Context) (*SMSTemplateDoc, error) {
	doc := p.doc
	return &doc, nil
}

// AssetEmailTemplates 从外部资产路径拉取邮件模板文档
type AssetEmailTemplates struct {
	client *assets.Client
	path   string
}

func NewAssetEmailTemplates(client *assets.Client, path string) *AssetEmailTemplates {
	return &AssetEmailTemplates{client: client, path: path}
}

func (p *AssetEmailTemplates) Templates(ctx context.Context) (*EmailTemplateDoc, error) {
	var doc EmailTemplateDoc
	if err := p.client.GetJSON(ctx, p.path, &doc); err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	return &doc, nil
}

// AssetSMSTemplates 从外部资产路径拉取短信模板文档
type AssetSMSTemplates struct {
	client *assets.Client
	path   string
}

func NewAssetSMSTemplates(client *assets.Client, path string) *AssetSMSTemplates {
	return &AssetSMSTemplates{client: client, path: path}
}

func (p *AssetSMSTemplates) Templates(ctx context.Context) (*SMSTemplateDoc, error) {
	var doc SMSTemplateDoc
	if err := p.client.GetJSON(ctx, p.path, &doc); err != nil {
		return nil, fmt.Errorf("load sms templates: %w", err)
	}
	return &doc, nil
}
