package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"github.com/GPTx-global/oraclelink/encoding/params"
	"github.com/GPTx-global/oraclelink/oracle/config"
	"github.com/GPTx-global/oraclelink/oracle/log"
	"github.com/GPTx-global/oraclelink/oracle/retry"
	"github.com/GPTx-global/oraclelink/oracle/types"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
)

const maxBodySize = 4 << 20

// Executor answers jobs by fetching the "get" URL and extracting "path" from
// the JSON response. When "times" is present the extracted number is
// multiplied by it, truncated and encoded as a 32 byte word.
type Executor struct {
	client *http.Client
	retry  retry.Config
}

func NewExecutor(cfg config.FetchConfig) *Executor {
	return &Executor{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				MaxConnsPerHost:     50,
			},
		},
		retry: retry.Config{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.BaseDelay,
			MaxDelay:    10 * cfg.BaseDelay,
			Multiplier:  2,
		},
	}
}

// Execute runs job and returns the value to submit.
func (e *Executor) Execute(ctx context.Context, job *types.Job) ([]byte, error) {
	url, ok := job.Params.GetString(params.KeyGet)
	if !ok || url == "" {
		return nil, fmt.Errorf("request %s: missing %q parameter", job.RequestID.Hex(), params.KeyGet)
	}
	path, err := selector(job.Params)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", job.RequestID.Hex(), err)
	}

	var body []byte
	err = retry.Do(ctx, e.retry, func() (err error) {
		body, err = e.fetch(ctx, url)
		return err
	}, retry.DefaultIsRetryable)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	result, err := extract(body, path)
	if err != nil {
		return nil, err
	}

	times, ok := job.Params[params.KeyTimes]
	if !ok {
		return []byte(result.String()), nil
	}
	return scale(result, times)
}

func (e *Executor) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
	}
	req.Header.Set("User-Agent", "oracled/1.0")
	req.Header.Set("Accept", "application/json")

	res, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
		if res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests {
			return nil, err
		}
		return nil, retry.Permanent(err)
	}
	return body, nil
}

var gjsonEscaper = strings.NewReplacer(
	`\`, `\\`, ".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`,
)

// selector turns the "path" parameter into a gjson path. A string is used
// as is, a list is taken as literal keys and indices.
func selector(p params.Params) (string, error) {
	raw, ok := p[params.KeyPath]
	if !ok {
		return "", nil
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case []any:
		parts := make([]string, len(v))
		for i, seg := range v {
			s, err := cast.ToStringE(seg)
			if err != nil {
				return "", fmt.Errorf("invalid path segment %v: %w", seg, err)
			}
			parts[i] = gjsonEscaper.Replace(s)
		}
		return strings.Join(parts, "."), nil
	default:
		return "", fmt.Errorf("invalid %q parameter of type %T", params.KeyPath, raw)
	}
}

func extract(body []byte, path string) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("response is not valid JSON")
	}
	if path == "" {
		return gjson.ParseBytes(body), nil
	}
	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("path %q not found in response", path)
	}
	return result, nil
}

// scale multiplies result by times and encodes the truncated product.
func scale(result gjson.Result, times any) ([]byte, error) {
	multiplier, err := toDec(times)
	if err != nil {
		return nil, fmt.Errorf("invalid %q parameter: %w", params.KeyTimes, err)
	}
	value, err := toDec(result.String())
	if err != nil {
		return nil, fmt.Errorf("extracted value %q is not numeric: %w", result.String(), err)
	}

	product := value.Mul(multiplier).TruncateInt()
	if product.IsNegative() {
		return nil, fmt.Errorf("scaled value %s is negative", product)
	}
	if product.BigInt().BitLen() > 8*coordinatortypes.WordLength {
		return nil, fmt.Errorf("scaled value %s overflows a word", product)
	}
	log.Debugf("scaled %s by %s to %s", value, multiplier, product)
	return coordinatortypes.EncodeWord(product.BigInt()), nil
}

// toDec parses plain decimals exactly and falls back to float parsing for
// exponent notation.
func toDec(v any) (sdk.Dec, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return sdk.Dec{}, err
	}
	s = strings.TrimSpace(s)
	if d, err := sdk.NewDecFromStr(s); err == nil {
		return d, nil
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return sdk.Dec{}, err
	}
	return sdk.NewDecFromStr(cast.ToString(f))
}
