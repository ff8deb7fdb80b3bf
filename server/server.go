// Package server implements the collaborator hooks of spec.md §6: a
// Config/Server pair, the TCP accept loop, and the wiring between each
// session's callbacks (login acceptor, status responder, registry codec)
// and the world core's tick and broadcast operations.
package server

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"log/slog"
	"net"
	"sync"

	servernet "github.com/dm-vev/ferrite/server/net"
	"github.com/dm-vev/ferrite/server/session"
	"github.com/dm-vev/ferrite/server/session/packet"
	"github.com/dm-vev/ferrite/server/world"
	"github.com/dm-vev/ferrite/server/world/entity"
	"github.com/dm-vev/ferrite/server/world/worldid"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// defaultSpawn is where a newly joined player's location starts, atop the
// superflat FlatGenerator's surface (grass sits at chunk.MinY+3).
var defaultSpawn = mgl64.Vec3{0, -60, 0}

// Server owns the TCP listener, the world core and every logged-in
// session, per spec.md §6.
type Server struct {
	log *slog.Logger
	cfg Config

	world    *world.World
	listener net.Listener

	mu       sync.Mutex
	sessions map[worldid.EntityID]*session.Session
}

// New constructs a Server. Call Listen and then Serve to start accepting
// connections.
func New(cfg Config) *Server {
	cfg.applyDefaults()
	w := world.NewWorld(world.Config{
		Log:          cfg.Log,
		Generator:    cfg.Generator,
		Workers:      cfg.GeneratorWorkers,
		ViewDistance: cfg.ViewDistance,
		TickPeriod:   cfg.TickPeriod,
		Profiler: func(p world.Profile) {
			cfg.Log.Info("tick profile", "ticks", p.Ticks, "avg", p.AvgDuration, "tps", p.TPS)
		},
	})
	return &Server{
		log:      cfg.Log,
		cfg:      cfg,
		world:    w,
		sessions: make(map[worldid.EntityID]*session.Session),
	}
}

// Listen opens the TCP listener at cfg.Address. It must be called before
// Serve.
func (srv *Server) Listen() error {
	l, err := net.Listen("tcp", srv.cfg.Address)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	srv.listener = l
	return nil
}

// Serve runs the world tick loop and the accept loop until ctx is
// cancelled or the listener is closed.
func (srv *Server) Serve(ctx context.Context) error {
	go srv.world.Run(ctx)

	go func() {
		<-ctx.Done()
		srv.listener.Close()
	}()

	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("server: accept: %w", err)
			}
		}
		go srv.handleConn(ctx, conn)
	}
}

func (srv *Server) handleConn(ctx context.Context, nc net.Conn) {
	conn := servernet.NewConn(nc)
	sess := session.NewSession(conn, session.Config{
		Log:             srv.log,
		StatusResponder: srv.statusResponder,
		LoginAcceptor:   srv.loginAcceptor,
	})

	go srv.pumpEvents(sess)

	if err := sess.Run(ctx); err != nil {
		srv.log.Debug("session ended", "remote", nc.RemoteAddr(), "err", err)
	}
}

// loginAcceptor always accepts, deriving an offline-mode UUID from the
// username the same way a vanilla server run with online-mode disabled
// does; external identity-provider authentication is a spec.md Non-goal.
func (srv *Server) loginAcceptor(name string) session.LoginDecision {
	return session.LoginDecision{
		Accept:    true,
		UUID:      offlineUUID(name),
		Username:  name,
		Encrypt:   srv.cfg.EncryptionEnabled,
		Compress:  srv.cfg.CompressionThreshold >= 0,
		Threshold: srv.cfg.CompressionThreshold,
	}
}

func offlineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	var u uuid.UUID
	copy(u[:], sum[:])
	u[6] = (u[6] & 0x0f) | 0x30
	u[8] = (u[8] & 0x3f) | 0x80
	return u
}

func (srv *Server) statusResponder() string {
	srv.mu.Lock()
	online := len(srv.sessions)
	srv.mu.Unlock()
	return fmt.Sprintf(`{"version":{"name":"1.19.4","protocol":762},`+
		`"players":{"max":%d,"online":%d,"sample":[]},`+
		`"description":{"text":%q}}`, srv.cfg.MaxPlayers, online, srv.cfg.MOTD)
}

// pumpEvents drains one session's ClientEvent stream for its lifetime,
// translating each into a world core operation. It owns the session's
// registration with and removal from the world.
func (srv *Server) pumpEvents(sess *session.Session) {
	var id worldid.EntityID
	var registered bool

	for ev := range sess.Events() {
		switch e := ev.(type) {
		case session.LoggedIn:
			id = srv.world.AllocateEntityID()
			srv.sendJoinGame(sess, id)
			srv.sendInitialPosition(sess)
			srv.world.AddPlayer(id, e.UUID, sess, entity.Location{
				Pos: defaultSpawn,
			}, srv.cfg.ViewDistance)
			registered = true

			srv.mu.Lock()
			srv.sessions[id] = sess
			srv.mu.Unlock()
		case session.PlayerPosition:
			if registered {
				srv.world.SetPlayerPosition(id, e.X, e.Y, e.Z, e.OnGround)
			}
		case session.PlayerRotation:
			if registered {
				srv.world.SetPlayerRotation(id, e.Yaw, e.Pitch, e.OnGround)
			}
		case session.ChatMessage:
			if registered {
				srv.world.Broadcast(fmt.Sprintf("<%s> %s", sess.Username(), e.Message))
			}
		case session.Ping:
			if registered {
				if r := srv.world.Registry().Get(id); r != nil && r.Player != nil {
					r.Player.PingMs = e.RoundTrip
				}
			}
		case session.Logout:
			if registered {
				srv.mu.Lock()
				delete(srv.sessions, id)
				srv.mu.Unlock()
				srv.world.RemovePlayer(id)
				registered = false
			}
		}
	}

	if registered {
		srv.mu.Lock()
		delete(srv.sessions, id)
		srv.mu.Unlock()
		srv.world.RemovePlayer(id)
	}
}

func (srv *Server) sendJoinGame(sess *session.Session, id worldid.EntityID) {
	buf := new(bytes.Buffer)
	err := packet.EncodeJoinGame(buf, packet.JoinGame{
		EntityID:         int32(id),
		Gamemode:         0,
		PreviousGamemode: -1,
		WorldNames:       []string{"minecraft:overworld"},
		RegistryCodec:    srv.cfg.RegistryCodec,
		DimensionType:    "minecraft:overworld",
		WorldName:        "minecraft:overworld",
		MaxPlayers:       int32(srv.cfg.MaxPlayers),
		ViewDistance:     srv.cfg.ViewDistance,
		SimDistance:      srv.cfg.ViewDistance,
	})
	if err != nil {
		srv.log.Warn("encode join game", "err", err)
		return
	}
	sess.SendPlayPacket(packet.IDJoinGame, buf.Bytes(), true)
}

// sendInitialPosition teleports the freshly joined player to spawn. The
// client acknowledges with a TeleportConfirm carrying the same id.
func (srv *Server) sendInitialPosition(sess *session.Session) {
	buf := new(bytes.Buffer)
	if err := packet.EncodePlayerPositionAndLook(buf, packet.PlayerPositionAndLook{
		X: defaultSpawn.X(), Y: defaultSpawn.Y(), Z: defaultSpawn.Z(),
		TeleportID: 1,
	}); err != nil {
		srv.log.Warn("encode initial position", "err", err)
		return
	}
	sess.SendPlayPacket(packet.IDPlayerPositionAndLook, buf.Bytes(), true)
}
