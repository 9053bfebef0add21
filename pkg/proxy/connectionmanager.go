package proxy

import (
	"slices"
	"sync"

	"emperror.dev/errors"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/work6189/PoPlayers/pkg/event"
)

const jobQueue = 100

func newConnectionManager(debug bool, metrics *metrics, logger zLogger.ZLogger) *connectionManager {
	cm := &connectionManager{
		debug:         debug,
		wsConns:       make(map[string]*connection),
		groups:        make(map[string][]string),
		logger:        logger,
		metrics:       metrics,
		senderChannel: make(chan *job, jobQueue),
	}
	return cm
}

type job struct {
	evt  *event.Event
	dest string
}

// connectionManager keeps the named connections and groups and forwards
// events with a pool of workers. A target is either a connection name or a
// group name.
type connectionManager struct {
	wsConns   map[string]*connection
	wsConnsMu sync.Mutex
	groups    map[string][]string
	groupsMu  sync.RWMutex
	debug     bool
	logger    zLogger.ZLogger
	metrics   *metrics

	senderMu      sync.RWMutex
	senderChannel chan *job
	closed        bool
	workerWG      sync.WaitGroup
}

func (manager *connectionManager) start(numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		manager.logger.Debug().Msgf("Starting worker #%d", i)
		manager.workerWG.Add(1)
		go manager.worker(i, manager.senderChannel)
	}
}

func (manager *connectionManager) close() {
	manager.senderMu.Lock()
	if manager.closed {
		manager.senderMu.Unlock()
		return
	}
	manager.closed = true
	close(manager.senderChannel)
	manager.senderMu.Unlock()
	manager.workerWG.Wait()
}

func (manager *connectionManager) worker(id int, jobs <-chan *job) {
	defer manager.workerWG.Done()
	for j := range jobs {
		manager.logger.Debug().Msgf("worker #%d forwarding event %s %s -> %s to %s", id, j.evt.Type, j.evt.GetSource(), j.evt.GetTarget(), j.dest)
		if err := manager.sendWS(j.dest, j.evt); err != nil {
			manager.metrics.undelivered.Inc()
			manager.logger.Error().Err(err).Msgf("worker #%d failed to send event", id)
			continue
		}
		manager.logger.Debug().Msgf("worker #%d event %s %s -> %s to %s forwarded", id, j.evt.Type, j.evt.GetSource(), j.evt.GetTarget(), j.dest)
	}
}

func (manager *connectionManager) destinations(target string) []string {
	manager.groupsMu.RLock()
	defer manager.groupsMu.RUnlock()
	if dests, ok := manager.groups[target]; ok {
		return slices.Clone(dests)
	}
	return []string{target}
}

func (manager *connectionManager) send(evt *event.Event) error {
	manager.senderMu.RLock()
	defer manager.senderMu.RUnlock()
	if manager.closed {
		return errors.New("connection manager closed")
	}
	manager.metrics.events.WithLabelValues(string(evt.GetType())).Inc()
	for _, dest := range manager.destinations(evt.GetTarget()) {
		manager.senderChannel <- &job{evt: evt, dest: dest}
	}
	return nil
}

func (manager *connectionManager) sendWS(dest string, evt *event.Event) error {
	conn, ok := manager.getWSConn(dest)
	if !ok {
		return errors.Errorf("no connection for destination %s", dest)
	}
	if err := conn.WriteJSON(evt); err != nil {
		return errors.Wrapf(err, "failed to send event %s to %s->%s", evt.GetType(), evt.GetSource(), evt.GetTarget())
	}
	return nil
}

func (manager *connectionManager) addWSConn(c *connection) error {
	name := c.Name
	if conn, ok := manager.getWSConn(name); ok {
		if conn.Secure && !c.Secure {
			return errors.Errorf("cannot replace secure connection %s with an insecure connection", name)
		}
		manager.closeWSConn(conn)
		manager.logger.Warn().Msgf("replacing connection %s", name)
	}
	manager.wsConnsMu.Lock()
	defer manager.wsConnsMu.Unlock()
	manager.logger.Debug().Msgf("Adding connection %s", name)
	manager.wsConns[name] = c
	manager.metrics.connections.Set(float64(len(manager.wsConns)))
	return nil
}

func (manager *connectionManager) getWSConn(name string) (*connection, bool) {
	manager.wsConnsMu.Lock()
	defer manager.wsConnsMu.Unlock()
	conn, ok := manager.wsConns[name]
	return conn, ok
}

// closeWSConn closes c if it is still the registered connection of its name.
func (manager *connectionManager) closeWSConn(c *connection) {
	manager.wsConnsMu.Lock()
	defer manager.wsConnsMu.Unlock()
	conn, ok := manager.wsConns[c.Name]
	if !ok || conn != c {
		manager.logger.Debug().Msgf("connection %s[%s] already closed.", c.Name, c.Conn.RemoteAddr())
		return
	}
	manager.logger.Debug().Msgf("Closing connection %s[%s]", c.Name, c.Conn.RemoteAddr())
	if err := conn.Close(); err != nil {
		manager.logger.Error().Err(err).Msg("Failed to close connection")
	}
	delete(manager.wsConns, c.Name)
	manager.metrics.connections.Set(float64(len(manager.wsConns)))
}

func (manager *connectionManager) closeAll() {
	manager.wsConnsMu.Lock()
	defer manager.wsConnsMu.Unlock()
	for name, conn := range manager.wsConns {
		if err := conn.Close(); err != nil {
			manager.logger.Error().Err(err).Msgf("Failed to close connection %s", name)
		}
	}
	clear(manager.wsConns)
	manager.metrics.connections.Set(0)
}

func (manager *connectionManager) AddToGroup(name string, group string) {
	manager.groupsMu.Lock()
	defer manager.groupsMu.Unlock()
	if !slices.Contains(manager.groups[group], name) {
		manager.groups[group] = append(manager.groups[group], name)
	}
}

func (manager *connectionManager) RemoveFromGroup(name string, group string) {
	manager.groupsMu.Lock()
	defer manager.groupsMu.Unlock()
	manager.removeFromGroup(name, group)
}

func (manager *connectionManager) RemoveFromGroups(name string) {
	manager.groupsMu.Lock()
	defer manager.groupsMu.Unlock()
	for group := range manager.groups {
		manager.removeFromGroup(name, group)
	}
}

func (manager *connectionManager) removeFromGroup(name string, group string) {
	members, ok := manager.groups[group]
	if !ok {
		return
	}
	members = slices.DeleteFunc(members, func(s string) bool {
		return s == name
	})
	if len(members) == 0 {
		delete(manager.groups, group)
		return
	}
	manager.groups[group] = members
}

// Group returns the members of group.
func (manager *connectionManager) Group(group string) []string {
	manager.groupsMu.RLock()
	defer manager.groupsMu.RUnlock()
	return slices.Clone(manager.groups[group])
}
