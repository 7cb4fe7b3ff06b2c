// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config_test

import (
	"testing"

	"github.com/lateminer/blackcoin-more/config"
	"github.com/lateminer/blackcoin-more/mining"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDocumentedDefaults(t *testing.T) {
	opts, err := config.Load([]string{})
	require.NoError(t, err)

	require.Equal(t, int64(mining.DefaultBlockMaxWeight), opts.BlockMaxWeight)
	require.True(t, opts.Staking)
	require.False(t, opts.NoStaking)
	require.True(t, opts.StakingEnabled())
}

func TestLoadOverridesFromArgs(t *testing.T) {
	opts, err := config.Load([]string{
		"--blockmaxweight=500000",
		"--blockmintxfee=2000",
		"--printpriority",
		"--nostaking",
	})
	require.NoError(t, err)

	require.Equal(t, int64(500000), opts.BlockMaxWeight)
	require.Equal(t, int64(2000), opts.BlockMinTxFee)
	require.True(t, opts.PrintPriority)
	require.False(t, opts.StakingEnabled())
}

func TestMiningOptionsProjection(t *testing.T) {
	opts, err := config.Load([]string{"--blockmaxweight=900000", "--blockversion=5"})
	require.NoError(t, err)

	mo := opts.MiningOptions()
	require.Equal(t, int64(900000), mo.BlockMaxWeight)
	require.Equal(t, int32(5), mo.BlockVersionOverride)
}

func TestStakingConfigProjection(t *testing.T) {
	opts, err := config.Load([]string{"--staketimio=2500"})
	require.NoError(t, err)

	sc := opts.StakingConfig()
	require.Equal(t, int64(2500), sc.StakeTimeioMillis)
	require.True(t, sc.Enabled())
}
