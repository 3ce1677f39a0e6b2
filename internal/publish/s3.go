package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// S3API is the subset of the S3 client used by S3Publisher.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config addresses the bucket that serves pages.
type S3Config struct {
	Bucket        string
	Region        string
	Prefix        string
	PublicBaseURL string
}

// S3Publisher writes pages to S3 with ETag preconditions: IfMatch on update,
// IfNoneMatch "*" on create.
type S3Publisher struct {
	api S3API
	cfg S3Config
}

// NewS3Publisher creates a publisher writing through api.
func NewS3Publisher(api S3API, cfg S3Config) *S3Publisher {
	return &S3Publisher{api: api, cfg: cfg}
}

// LiveURL derives the public URL for key.
func (p *S3Publisher) LiveURL(key string) string {
	base := p.cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", p.cfg.Bucket, p.cfg.Region)
	}
	if prefix := strings.Trim(p.cfg.Prefix, "/"); prefix != "" {
		base = strings.TrimRight(base, "/") + "/" + prefix
	}
	return joinURL(base, key)
}

// Publish upserts content at {prefix}/{key}/index.html.
func (p *S3Publisher) Publish(ctx context.Context, key string, content []byte) (model.PublishResult, error) {
	const op = "publish: s3"
	if err := checkKey(op, key); err != nil {
		return failure(err)
	}

	objKey := objectPath(p.cfg.Prefix, key)

	etag, err := p.currentETag(ctx, objKey)
	if err != nil {
		return failure(err)
	}

	in := &s3.PutObjectInput{
		Bucket:       aws.String(p.cfg.Bucket),
		Key:          aws.String(objKey),
		Body:         bytes.NewReader(content),
		ContentType:  aws.String("text/html; charset=utf-8"),
		CacheControl: aws.String("no-cache"),
	}
	if etag == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(etag)
	}

	out, putErr := p.api.PutObject(ctx, in)
	if putErr != nil {
		status := httpStatus(putErr)
		zap.L().Warn("publish: s3 write rejected",
			zap.String("slug", key),
			zap.Int("status", status),
			zap.Error(putErr),
		)
		msg := "write rejected"
		if status == http.StatusPreconditionFailed || status == http.StatusConflict {
			msg = "object changed since it was read"
		}
		return failure(model.WrapError(model.KindPublish, op, msg, putErr).WithStatus(status))
	}

	res := model.PublishResult{
		Success:  true,
		LiveURL:  p.LiveURL(key),
		Revision: strings.Trim(aws.ToString(out.ETag), `"`),
		Created:  etag == "",
	}
	zap.L().Info("publish: page written",
		zap.String("slug", key),
		zap.Bool("created", res.Created),
		zap.String("revision", res.Revision),
	)
	return res, nil
}

// currentETag returns the object's ETag, or "" when it does not exist.
func (p *S3Publisher) currentETag(ctx context.Context, objKey string) (string, *model.Error) {
	out, err := p.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", model.WrapError(model.KindPublish, "publish: s3", "read current revision", err).
			WithStatus(httpStatus(err))
	}
	return aws.ToString(out.ETag), nil
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return httpStatus(err) == http.StatusNotFound
}

func httpStatus(err error) int {
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		return re.HTTPStatusCode()
	}
	return 0
}
