package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"staking_hub/internal/config"
	"staking_hub/internal/entity"
)

// PaintSwapClient reads NFT holdings from the PaintSwap marketplace API.
type PaintSwapClient interface {
	UserNFTs(ctx context.Context, owner, collection string) ([]entity.PaintSwapNFT, error)
}

type paintSwapClientImpl struct {
	client   *fasthttp.Client
	baseURL  string
	pageSize int
	maxPages int
	timeout  time.Duration
	logger   *zap.Logger
}

// NewPaintSwapClient creates a new PaintSwap client.
func NewPaintSwapClient(cfg config.PaintSwapConfig, logger *zap.Logger) PaintSwapClient {
	return &paintSwapClientImpl{
		client:   &fasthttp.Client{},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
		timeout:  time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		logger:   logger.Named("PaintSwapClient"),
	}
}

// UserNFTs pages through the owner's NFTs until a short page or the page limit.
// collection optionally restricts the result to one contract.
func (c *paintSwapClientImpl) UserNFTs(ctx context.Context, owner, collection string) ([]entity.PaintSwapNFT, error) {
	all := make([]entity.PaintSwapNFT, 0)
	for page := 0; page < c.maxPages; page++ {
		nfts, err := c.fetchPage(ctx, owner, collection, page*c.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, nfts...)
		if len(nfts) < c.pageSize {
			break
		}
	}
	c.logger.Debug("Fetched user NFTs", zap.String("owner", owner), zap.Int("count", len(all)))
	return all, nil
}

func (c *paintSwapClientImpl) fetchPage(ctx context.Context, owner, collection string, skip int) ([]entity.PaintSwapNFT, error) {
	params := url.Values{}
	params.Set("user", owner)
	params.Set("numToFetch", strconv.Itoa(c.pageSize))
	params.Set("numToSkip", strconv.Itoa(skip))
	if collection != "" {
		params.Set("collections", collection)
	}
	requestURL := c.baseURL + "/v2/userNFTs?" + params.Encode()

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := doRequest(ctx, c.client, "paintswap", "userNFTs", req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute request to PaintSwap", zap.String("owner", owner), zap.Error(err))
		return nil, err
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("PaintSwap API request failed",
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("PaintSwap API request failed with status %d: %s", resp.StatusCode(), truncate(rawBody, 256))
	}

	var page entity.PaintSwapNFTPage
	if err := json.Unmarshal(rawBody, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal PaintSwap response: %w", err)
	}
	return page.NFTs, nil
}
