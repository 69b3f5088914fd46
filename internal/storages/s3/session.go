package s3

import (
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"
)

const (
	DefaultProfile    = "default"
	DefaultRegion     = "us-east-1"
	MaxRetriesDefault = 3
)

// Config describes how to reach the bucket. Every session built from it is independent.
type Config struct {
	Profile        string
	Bucket         string
	Region         string
	Endpoint       string
	ForcePathStyle bool
	MaxRetries     int
	PageCap        int
	Debug          bool
}

// Given an S3 bucket name, attempt to determine its region
func findBucketRegion(bucket string, sess *session.Session) (string, error) {
	input := s3.GetBucketLocationInput{
		Bucket: aws.String(bucket),
	}

	output, err := s3.New(sess, aws.NewConfig().WithRegion(DefaultRegion)).GetBucketLocation(&input)
	if err != nil {
		return "", err
	}

	if output.LocationConstraint == nil || *output.LocationConstraint == "" {
		// buckets in "US Standard", a.k.a. us-east-1, are returned as a nil region
		return DefaultRegion, nil
	}
	return *output.LocationConstraint, nil
}

func getAWSRegion(config Config, sess *session.Session) (string, error) {
	if config.Region != "" {
		return config.Region, nil
	}
	if region := aws.StringValue(sess.Config.Region); region != "" {
		return region, nil
	}
	if config.Endpoint == "" || strings.HasSuffix(config.Endpoint, ".amazonaws.com") {
		region, err := findBucketRegion(config.Bucket, sess)
		return region, errors.Wrap(err, "region is not set and s3:GetBucketLocation failed")
	}
	// For S3 compatible services like Minio, Ceph etc. use `us-east-1` as region
	// ref: https://github.com/minio/cookbook/blob/master/docs/aws-sdk-for-go-with-minio.md
	return DefaultRegion, nil
}

func awsConfig(config Config) *aws.Config {
	awsConfig := aws.NewConfig().
		WithHTTPClient(&http.Client{Transport: NewRoundTripperWithLogging(http.DefaultTransport)})
	// throttled requests must reach ShouldRetry so the pool backoff handles them
	awsConfig.EnforceShouldRetryCheck = aws.Bool(true)
	awsConfig = request.WithRetryer(awsConfig, NewThrottleAwareRetryer(client.DefaultRetryer{NumMaxRetries: config.MaxRetries}))

	if config.Endpoint != "" {
		awsConfig = awsConfig.WithEndpoint(config.Endpoint)
	}
	if config.ForcePathStyle {
		awsConfig = awsConfig.WithS3ForcePathStyle(true)
	}
	if config.Debug {
		awsConfig = awsConfig.WithLogLevel(aws.LogDebug)
	}
	return awsConfig
}

func createSession(config Config) (*session.Session, error) {
	profile := config.Profile
	if profile == "" {
		profile = DefaultProfile
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *awsConfig(config),
		Profile:           profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, NewError(err, "failed to create session for profile '%s'", profile)
	}

	region, err := getAWSRegion(config, sess)
	if err != nil {
		return nil, NewError(err, "failed to determine region of bucket '%s'", config.Bucket)
	}
	tracelog.DebugLogger.Printf("Using region %s for bucket %s", region, config.Bucket)
	return sess.Copy(aws.NewConfig().WithRegion(region)), nil
}
