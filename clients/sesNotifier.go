package clients

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/endpoints"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
	"golang.org/x/net/idna"
)

const (
	// CharSet The character encoding for the email.
	CharSet = "UTF-8"

	// DefaultTextMessage will be sent to non-HTML email clients that receive our messages
	DefaultTextMessage = "You need an HTML client to read this email."
)

type (
	// SesNotifier contains all information needed to send Amazon SES messages
	SesNotifier struct {
		Config *SesNotifierConfig
		SES    *ses.SES
	}

	// SesNotifierConfig contains the static configuration for the Amazon SES service.
	// Credentials come from the environment (AWS credential chain) and are
	// never embedded in configuration variables.
	SesNotifierConfig struct {
		From     string `split_words:"true" required:"true"`
		Region   string `default:"us-west-2"`
		Endpoint string `default:""`
	}
)

func sesNotifierConfigProvider() (SesNotifierConfig, error) {
	var config SesNotifierConfig
	if err := envconfig.Process("ses", &config); err != nil {
		return SesNotifierConfig{}, err
	}
	return config, nil
}

func sesNotifierProvider(config SesNotifierConfig) (Notifier, error) {
	return NewSesNotifier(&config)
}

// SesModule provides the production notifier backed by Amazon SES.
var SesModule = fx.Options(fx.Provide(sesNotifierConfigProvider, sesNotifierProvider))

//NewSesNotifier creates a new Amazon SES notifier
func NewSesNotifier(cfg *SesNotifierConfig) (*SesNotifier, error) {
	// If an endpoint is configured, AWS' default is overriden. Used to point
	// at a local SES stand-in during development.
	customResolver := func(service, region string, optFns ...func(*endpoints.Options)) (endpoints.ResolvedEndpoint, error) {
		if service == endpoints.EmailServiceID && cfg.Endpoint != "" {
			return endpoints.ResolvedEndpoint{
				URL:           cfg.Endpoint,
				SigningRegion: "custom-signing-region",
			}, nil
		}
		return endpoints.DefaultResolver().EndpointFor(service, region, optFns...)
	}

	sess := session.Must(session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		EndpointResolver: endpoints.ResolverFunc(customResolver),
	}))

	// Verify whether we have actual credentials (for information tracing).
	// Validity of found credentials is not checked at this stage.
	creds, err := sess.Config.Credentials.Get()
	if err != nil {
		log.Printf("No AWS credentials were found. Email will not be sent. Error: %s", err.Error())
	} else {
		log.Printf("AWS credentials found with provider %s", creds.ProviderName)
	}

	return &SesNotifier{
		Config: cfg,
		SES:    ses.New(sess),
	}, nil
}

// Send a message to a list of recipients with a given subject
func (c *SesNotifier) Send(to []string, subject string, msg string) (int, string) {
	var toAwsAddress = make([]*string, len(to))
	for i, address := range to {
		encoded, err := punycodeEmail(address)
		if err != nil {
			return http.StatusBadRequest, err.Error()
		}
		toAwsAddress[i] = aws.String(encoded)
	}

	input := &ses.SendEmailInput{
		Destination: &ses.Destination{
			CcAddresses: []*string{},
			ToAddresses: toAwsAddress,
		},
		Message: &ses.Message{
			Body: &ses.Body{
				Html: &ses.Content{
					Charset: aws.String(CharSet),
					Data:    aws.String(msg),
				},
				Text: &ses.Content{
					Charset: aws.String(CharSet),
					Data:    aws.String(DefaultTextMessage),
				},
			},
			Subject: &ses.Content{
				Charset: aws.String(CharSet),
				Data:    aws.String(subject),
			},
		},
		Source: aws.String(c.Config.From),
	}

	result, err := c.SES.SendEmail(input)

	// Return error messages if they occur. They are traced in the caller function
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			return http.StatusInternalServerError, aerr.Error()
		}
		return http.StatusInternalServerError, err.Error()
	}
	log.Printf("SES email sent: %s\n", subject)
	return http.StatusOK, result.String()
}

// punycodeEmail encodes the domain part of an address so SES accepts
// internationalized domains. The local part is left untouched, it may
// legally contain quoted "@" characters.
func punycodeEmail(email string) (string, error) {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email, nil
	}
	domain, err := idna.ToASCII(email[at+1:])
	if err != nil {
		return "", err
	}
	return email[:at+1] + domain, nil
}
