// Package glass is a gRPC looking glass in front of bird. Remote callers can
// read protocol state and check the configuration, but never reconfigure.
package glass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mellowdrifter/birdctl/client"
	"github.com/mellowdrifter/birdctl/clidecode"
	"github.com/mellowdrifter/birdctl/common"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server implements LookingGlassServer over a router.
// Every call is answered by asking the router again.
type Server struct {
	router clidecode.Decoder
	log    *log.Entry
}

// New returns a server for router.
func New(router clidecode.Decoder, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Server{
		router: router,
		log:    logger.WithField("component", "glass"),
	}
}

// Serve registers the looking glass on a new gRPC server and serves lis until
// ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	g := grpc.NewServer(grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
		MinTime:             5 * time.Second,
		PermitWithoutStream: true,
	}))
	RegisterLookingGlassServer(g, s)

	go func() {
		<-ctx.Done()
		g.GracefulStop()
	}()

	s.log.WithField("listen", lis.Addr().String()).Info("serving looking glass")
	if err := g.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("glass: %w", err)
	}
	return nil
}

// Protocols returns the detailed records as JSON shaped structs.
func (s *Server) Protocols(ctx context.Context, r *wrapperspb.StringValue) (*structpb.ListValue, error) {
	defer common.TimeFunction(time.Now(), "Protocols", s.log)
	name := r.GetValue()

	var records []clidecode.ProtocolAll
	if name == "" {
		all, err := s.router.ShowProtocolsAll(ctx)
		if err != nil {
			return nil, s.toStatus(err)
		}
		records = all
	} else {
		p, err := s.router.ShowProtocolAll(ctx, name)
		if err != nil {
			return nil, s.toStatus(err)
		}
		records = []clidecode.ProtocolAll{p}
	}

	list, err := toList(records)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return list, nil
}

// ProtocolRaw returns bird's own text for one protocol.
func (s *Server) ProtocolRaw(ctx context.Context, r *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	name := r.GetValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "protocol name required")
	}
	text, err := s.router.ShowProtocolRaw(ctx, name, true)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return wrapperspb.String(text), nil
}

// ConfigureCheck reports whether bird's configuration files parse.
func (s *Server) ConfigureCheck(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	ok, _, err := s.router.ConfigureCheck(ctx)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return wrapperspb.Bool(ok), nil
}

func (s *Server) toStatus(err error) error {
	var (
		ioErr *client.IOError
		pe    *clidecode.ParseError
	)
	switch {
	case errors.Is(err, clidecode.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return status.FromContextError(err).Err()
	case errors.Is(err, client.ErrNotConnected), errors.As(err, &ioErr):
		s.log.WithError(err).Error("bird unavailable")
		return status.Error(codes.Unavailable, err.Error())
	case errors.As(err, &pe):
		s.log.WithError(err).Error("unable to decode bird output")
		return status.Error(codes.Internal, err.Error())
	}
	s.log.WithError(err).Error("request failed")
	return status.Error(codes.Internal, err.Error())
}

// toList goes through JSON so the struct tags of the records name the
// fields. Counters become float64 on the way.
func toList(records []clidecode.ProtocolAll) (*structpb.ListValue, error) {
	b, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	var generic []any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return structpb.NewList(generic)
}

func fromList(list *structpb.ListValue) ([]clidecode.ProtocolAll, error) {
	b, err := json.Marshal(list.AsSlice())
	if err != nil {
		return nil, err
	}
	var records []clidecode.ProtocolAll
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Dial connects to a looking glass.
func Dial(addr string) (*grpc.ClientConn, error) {
	// Set keepalive on the client
	kacp := keepalive.ClientParameters{
		Time:                10 * time.Second, // send pings every 10 seconds if there is no activity
		Timeout:             3 * time.Second,  // wait 3 seconds for ping ack before considering the connection dead
		PermitWithoutStream: true,
	}
	log.WithField("addr", addr).Debug("dialling looking glass")
	return grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(kacp),
	)
}

// Client calls a remote looking glass.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Protocols returns every protocol, or only name when it is set.
func (c *Client) Protocols(ctx context.Context, name string) ([]clidecode.ProtocolAll, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, methodProtocols, wrapperspb.String(name), out); err != nil {
		return nil, err
	}
	return fromList(out)
}

// ProtocolRaw returns bird's text for name.
func (c *Client) ProtocolRaw(ctx context.Context, name string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, methodProtocolRaw, wrapperspb.String(name), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// ConfigureCheck asks the remote bird to check its configuration.
func (c *Client) ConfigureCheck(ctx context.Context) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, methodConfigureCheck, &emptypb.Empty{}, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}
