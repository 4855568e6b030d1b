package nativesend_test

import (
	"context"
	"fmt"
	"log"

	"github.com/vitwit/nativesend"
	"github.com/vitwit/nativesend/clients"
	"github.com/vitwit/nativesend/logger"
	"github.com/vitwit/nativesend/runner"
	"github.com/vitwit/nativesend/types"
)

func ExampleAbility_Metadata() {
	md := nativesend.New().Metadata()
	fmt.Println(md.PackageName)
	fmt.Println(md.Description)
	fmt.Println(len(md.SupportedPolicies))
	// Output:
	// @lit-protocol/vincent-example-ability-native-send
	// Send native ETH to a recipient
	// 0
}

func ExampleNew() {
	ctx := context.Background()

	signer, err := clients.DialRemoteSigner(ctx, "http://127.0.0.1:8550")
	if err != nil {
		log.Fatal(err)
	}

	ability := nativesend.New(
		nativesend.WithSigner(signer),
		nativesend.WithLogger(logger.NewZapLogger("info")),
	)
	defer ability.Close()
	defer signer.Close()

	delegation := &types.DelegationContext{DelegatorPkpInfo: types.PkpInfo{
		EthAddress: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		PublicKey:  "0x048318535b54105d4a7aae60c08fc45f9687181b4fdfc625bd1a753fa7397fed753547f11ca8696646f2f3acb08e31016afac23e630c5d11f59f61fef57b0d2aa5",
	}}
	params := []byte(`{"rpcUrl":"https://yellowstone-rpc.litprotocol.com/","amount":"0.01","to":"0x70997970C51812dc3A010C7d01b50e0d17dc79C8"}`)

	precheck := &runner.JSONResponder{}
	if err := ability.Runner().Handle(ctx, types.PhasePrecheck, params, delegation, precheck); err != nil {
		log.Fatal(err)
	}
	if !precheck.Success() {
		fmt.Println(string(precheck.Result()))
		return
	}

	execute := &runner.JSONResponder{}
	if err := ability.Runner().Handle(ctx, types.PhaseExecute, params, delegation, execute); err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(execute.Result()))
}
