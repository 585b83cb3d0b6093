// Package beacon provides a client for the subset of the beacon node API the
// light client consumes: the Altair light client endpoints, finality
// checkpoints for trust anchoring, and node metadata.
package beacon

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/lumen/api/client"
	fieldparams "github.com/prysmaticlabs/lumen/config/fieldparams"
	"github.com/prysmaticlabs/lumen/config/params"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/consensus-types/primitives"
	"github.com/prysmaticlabs/lumen/encoding/bytesutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	getBootstrapPath                   = "/eth/v1/beacon/light_client/bootstrap"
	getUpdatesPath                     = "/eth/v1/beacon/light_client/updates"
	getFinalityUpdatePath              = "/eth/v1/beacon/light_client/finality_update"
	getOptimisticUpdatePath            = "/eth/v1/beacon/light_client/optimistic_update"
	getFinalityCheckpointsPathTemplate = "/eth/v1/beacon/states/%s/finality_checkpoints"
	getBlockHeaderPathTemplate         = "/eth/v1/beacon/headers/%s"
	getGenesisPath                     = "/eth/v1/beacon/genesis"
	getNodeVersionPath                 = "/eth/v1/node/version"
	getHealthPath                      = "/eth/v1/node/health"
	eventsPath                         = "/eth/v1/events"
)

// StateOrBlockId represents the block_id / state_id parameters in the beacon chain API.
type StateOrBlockId string

const (
	IdFinalized StateOrBlockId = "finalized"
	IdGenesis   StateOrBlockId = "genesis"
	IdHead      StateOrBlockId = "head"
)

// IdFromRoot encodes a block root in the format expected by the beacon chain API.
func IdFromRoot(r [32]byte) StateOrBlockId {
	return StateOrBlockId(fmt.Sprintf("%#x", r))
}

// IdFromSlot encodes a Slot in the format expected by the beacon chain API.
func IdFromSlot(s primitives.Slot) StateOrBlockId {
	return StateOrBlockId(strconv.FormatUint(uint64(s), 10))
}

// Client provides a collection of helper methods for calling the beacon node
// API endpoints the sync protocol consumes.
type Client struct {
	*client.Client
}

// NewClient returns a new Client that includes functions for REST calls to the given beacon node http address.
func NewClient(host string, opts ...client.ClientOpt) (*Client, error) {
	c, err := client.NewClient(host, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{c}, nil
}

// GetBootstrap retrieves the light client bootstrap anchored at the given
// trusted block root. The bootstrap carries the header matching the root and
// the current sync committee proven against the header state root.
func (c *Client) GetBootstrap(ctx context.Context, blockRoot [32]byte) (*lctypes.Bootstrap, error) {
	body, err := c.Get(ctx, path.Join(getBootstrapPath, fmt.Sprintf("%#x", blockRoot)))
	if err != nil {
		return nil, errors.Wrap(err, "error requesting light client bootstrap")
	}
	resp := &bootstrapResponseJson{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, errors.Wrap(err, "error decoding bootstrap response body")
	}
	b, err := decodeBootstrap(resp.Version, resp.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed bootstrap for root %#x", blockRoot)
	}
	return b, nil
}

// GetUpdates retrieves committee updates for count periods starting at
// startPeriod. Requests are capped at the network's
// MaxRequestLightClientUpdates; servers may return fewer updates than asked
// for when they are missing periods.
func (c *Client) GetUpdates(ctx context.Context, startPeriod, count uint64) ([]*lctypes.Update, error) {
	if count == 0 {
		return nil, errors.New("requested zero updates")
	}
	if max := params.BeaconNetworkConfig().MaxRequestLightClientUpdates; count > max {
		count = max
	}
	body, err := c.Get(ctx, getUpdatesPath,
		client.WithQueryValue("start_period", strconv.FormatUint(startPeriod, 10)),
		client.WithQueryValue("count", strconv.FormatUint(count, 10)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error requesting light client updates")
	}
	var resp []*updateResponseJson
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "error decoding updates response body")
	}
	updates := make([]*lctypes.Update, len(resp))
	for i, u := range resp {
		update, err := decodeUpdate(u.Version, u.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed update %d in range [%d, %d)", i, startPeriod, startPeriod+count)
		}
		updates[i] = update
	}
	return updates, nil
}

// GetFinalityUpdate retrieves the latest finality update known to the node.
func (c *Client) GetFinalityUpdate(ctx context.Context) (*lctypes.FinalityUpdate, error) {
	body, err := c.Get(ctx, getFinalityUpdatePath)
	if err != nil {
		return nil, errors.Wrap(err, "error requesting finality update")
	}
	resp := &updateResponseJson{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, errors.Wrap(err, "error decoding finality update response body")
	}
	update, err := decodeUpdate(resp.Version, resp.Data)
	if err != nil {
		return nil, errors.Wrap(err, "malformed finality update")
	}
	fu, err := lctypes.NewFinalityUpdateFromUpdate(update)
	if err != nil {
		return nil, errors.Wrap(err, "finality update carries no finality proof")
	}
	return fu, nil
}

// GetOptimisticUpdate retrieves the latest optimistic update known to the node.
func (c *Client) GetOptimisticUpdate(ctx context.Context) (*lctypes.OptimisticUpdate, error) {
	body, err := c.Get(ctx, getOptimisticUpdatePath)
	if err != nil {
		return nil, errors.Wrap(err, "error requesting optimistic update")
	}
	resp := &updateResponseJson{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, errors.Wrap(err, "error decoding optimistic update response body")
	}
	update, err := decodeUpdate(resp.Version, resp.Data)
	if err != nil {
		return nil, errors.Wrap(err, "malformed optimistic update")
	}
	return lctypes.NewOptimisticUpdateFromUpdate(update)
}

// GetFinalizedCheckpoint retrieves the finalized checkpoint of the state
// identified by stateId.
func (c *Client) GetFinalizedCheckpoint(ctx context.Context, stateId StateOrBlockId) (*Checkpoint, error) {
	body, err := c.Get(ctx, fmt.Sprintf(getFinalityCheckpointsPathTemplate, stateId))
	if err != nil {
		return nil, errors.Wrap(err, "error requesting finality checkpoints")
	}
	resp := &finalityCheckpointsResponseJson{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, errors.Wrap(err, "error decoding finality checkpoints response body")
	}
	if resp.Data == nil {
		return nil, errors.New("empty finality checkpoints response")
	}
	cp, err := decodeCheckpoint(resp.Data.Finalized)
	if err != nil {
		return nil, errors.Wrap(err, "malformed finalized checkpoint")
	}
	return cp, nil
}

// GetBlockHeader retrieves the canonical block header identified by blockId
// along with its root.
func (c *Client) GetBlockHeader(ctx context.Context, blockId StateOrBlockId) ([32]byte, *lctypes.BeaconBlockHeader, error) {
	body, err := c.Get(ctx, fmt.Sprintf(getBlockHeaderPathTemplate, blockId))
	if err != nil {
		return [32]byte{}, nil, errors.Wrap(err, "error requesting block header")
	}
	resp := &blockHeaderResponseJson{}
	if err := json.Unmarshal(body, resp); err != nil {
		return [32]byte{}, nil, errors.Wrap(err, "error decoding block header response body")
	}
	if resp.Data == nil || resp.Data.Header == nil {
		return [32]byte{}, nil, errors.New("empty block header response")
	}
	root, err := decodeHexWithLength(resp.Data.Root, fieldparams.RootLength)
	if err != nil {
		return [32]byte{}, nil, errors.Wrap(err, "block root")
	}
	header, err := decodeBeaconHeader(resp.Data.Header.Message)
	if err != nil {
		return [32]byte{}, nil, err
	}
	return bytesutil.ToBytes32(root), header, nil
}

// Genesis anchors the slot clock and the signing domains of a chain.
type Genesis struct {
	Time           uint64
	ValidatorsRoot [32]byte
	ForkVersion    [4]byte
}

// GetGenesis retrieves the genesis time, validators root and fork version of
// the chain served by the node.
func (c *Client) GetGenesis(ctx context.Context) (*Genesis, error) {
	body, err := c.Get(ctx, getGenesisPath)
	if err != nil {
		return nil, errors.Wrap(err, "error requesting genesis")
	}
	resp := &genesisResponseJson{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, errors.Wrap(err, "error decoding genesis response body")
	}
	if resp.Data == nil {
		return nil, errors.New("empty genesis response")
	}
	genesisTime, err := decodeUint(resp.Data.GenesisTime)
	if err != nil {
		return nil, errors.Wrap(err, "genesis time")
	}
	validatorsRoot, err := decodeHexWithLength(resp.Data.GenesisValidatorsRoot, fieldparams.RootLength)
	if err != nil {
		return nil, errors.Wrap(err, "genesis validators root")
	}
	forkVersion, err := decodeHexWithLength(resp.Data.GenesisForkVersion, fieldparams.VersionLength)
	if err != nil {
		return nil, errors.Wrap(err, "genesis fork version")
	}
	g := &Genesis{Time: genesisTime, ValidatorsRoot: bytesutil.ToBytes32(validatorsRoot)}
	copy(g.ForkVersion[:], forkVersion)
	return g, nil
}

// IsHealthy queries the node health endpoint. Only a node that is ready to
// serve requests reports healthy.
func (c *Client) IsHealthy(ctx context.Context) bool {
	_, err := c.Get(ctx, getHealthPath)
	return err == nil
}

// ErrInvalidNodeVersion indicates that the /eth/v1/node/version API response format was not recognized.
var ErrInvalidNodeVersion = errors.New("invalid node version response")

// NodeVersion encapsulates the version data available from the beacon node version api.
type NodeVersion struct {
	implementation string
	semver         string
	systemInfo     string
}

var versionRegex = regexp.MustCompile(`^(\w+)\/(v\d+\.\d+\.\d+[-a-zA-Z0-9]*)\s*\/?(.*)$`)

// parseNodeVersion parses a string of the format `implementation/semver platform` into a NodeVersion value.
func parseNodeVersion(v string) (*NodeVersion, error) {
	groups := versionRegex.FindStringSubmatch(v)
	if len(groups) != 4 {
		return nil, errors.Wrapf(ErrInvalidNodeVersion, "could not be parsed: %s", v)
	}
	return &NodeVersion{
		implementation: groups[1],
		semver:         groups[2],
		systemInfo:     groups[3],
	}, nil
}

// GetNodeVersion requests that the beacon node identify information about its implementation in a format
// similar to a HTTP User-Agent field. ex: Lighthouse/v0.1.5 (Linux x86_64)
func (c *Client) GetNodeVersion(ctx context.Context) (*NodeVersion, error) {
	body, err := c.Get(ctx, getNodeVersionPath)
	if err != nil {
		return nil, errors.Wrap(err, "error requesting node version")
	}
	d := struct {
		Data struct {
			Version string `json:"version"`
		} `json:"data"`
	}{}
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, errors.Wrap(err, "error decoding node version response body")
	}
	return parseNodeVersion(d.Data.Version)
}
