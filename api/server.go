package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/qonduit-team/qonduit-engine/core"
)

const APIServerName = "api"

const (
	DEFAULT_HOST = ""
	DEFAULT_PORT = "8088"

	shutdownTimeout = 5 * time.Second
)

// Server runs the HTTP surface assembled by Router in the run-group
// APIServer slot.
type Server struct {
	Host string `toml:"host"`
	Port string `toml:"port"`

	srv *http.Server
}

func (s *Server) GetEmptyParams() interface{} {
	return &Server{}
}

func (s *Server) SetParams(params interface{}) error {
	s.Host = DEFAULT_HOST
	s.Port = ""
	if params == nil {
		zap.L().Debug("no params for api server")
		return nil
	}
	pp, ok := params.(map[string]interface{})
	if !ok {
		err := fmt.Errorf("failed to set params for api server/params: %v", params)
		zap.L().Error(err.Error())
		return err
	}
	zap.L().Debug(fmt.Sprintf("Set params for api server: %v", pp))
	if v, ok := pp["host"].(string); ok && v != "" {
		s.Host = v
	}
	if v, ok := pp["port"].(string); ok && v != "" {
		s.Port = v
	}
	return nil
}

func (s *Server) Setup() error {
	if s.Port == "" {
		s.Port = DEFAULT_PORT
		if ci := core.CurrentInfo; ci != nil && ci.Conf.APIPort != "" {
			s.Port = ci.Conf.APIPort
		}
	}
	sc := core.GetSystemComponents()
	if sc == nil {
		return errors.New("system components are not set up")
	}
	var handler http.Handler
	err := sc.Invoke(
		func(ar core.APIRouter) error {
			r, ok := ar.(*Router)
			if !ok {
				return fmt.Errorf("api server requires api.Router, but %T is provided", ar)
			}
			handler = r.Handler()
			return nil
		})
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to get the api router/reason:%s", err))
		return err
	}
	s.srv = &http.Server{
		Addr:    net.JoinHostPort(s.Host, s.Port),
		Handler: handler,
	}
	return nil
}

func (s *Server) Serve() error {
	zap.L().Info(fmt.Sprintf("Starting up API server. Listening on %s", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		zap.L().Error(fmt.Sprintf("failed to shut down the API server/reason:%s", err))
	}
}
