package utils

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mojocn/base64Captcha"
)

const captchaTTL = 10 * time.Minute

var errCaptchaStoreDown = errors.New("captcha store unavailable")

// redisAnswers keeps captcha answers in Redis under captcha:<id> so that any
// server instance can check a registration captcha.
type redisAnswers struct {
	ttl time.Duration
}

func (a redisAnswers) Set(id, value string) error {
	cli := GetRedis()
	if cli == nil {
		return errCaptchaStoreDown
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return cli.Set(ctx, "captcha:"+id, value, a.ttl).Err()
}

// Get returns "" for unknown or expired ids. clear makes the answer single use.
func (a redisAnswers) Get(id string, clear bool) string {
	cli := GetRedis()
	if cli == nil || id == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cmd := cli.Get
	if clear {
		cmd = cli.GetDel
	}
	v, err := cmd(ctx, "captcha:"+id).Result()
	if err != nil {
		return ""
	}
	return v
}

func (a redisAnswers) Verify(id, answer string, clear bool) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	return strings.EqualFold(a.Get(id, clear), answer)
}

// captchaStore prefers Redis and falls back to the process-local store.
func captchaStore() base64Captcha.Store {
	if GetRedis() != nil {
		return redisAnswers{ttl: captchaTTL}
	}
	return base64Captcha.DefaultMemStore
}

// GenerateCaptcha creates a digit captcha and returns (id, dataURI) for the frontend.
func GenerateCaptcha() (string, string, error) {
	driver := base64Captcha.NewDriverDigit(40, 120, 5, 0.7, 80)
	c := base64Captcha.NewCaptcha(driver, captchaStore())
	id, b64, _, err := c.Generate()
	return id, b64, err
}

// VerifyCaptcha checks the answer and consumes the captcha.
func VerifyCaptcha(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return captchaStore().Verify(id, answer, true)
}
